package ingestion

import (
	"time"

	"github.com/google/uuid"
)

// Position はメッセージの部・章番号を表す
type Position struct {
	Part    int
	Chapter int
}

// Message は永続化されたメッセージ行を表す
type Message struct {
	ID        uuid.UUID
	Text      string
	Part      int
	Chapter   int
	Embedding Vector // 一覧・最新取得では読み込まない
	CreatedAt time.Time
}

// Position はメッセージの部・章番号を返す
func (m *Message) Position() Position {
	return Position{Part: m.Part, Chapter: m.Chapter}
}

// NewMessage は挿入前のメッセージ行を表す
type NewMessage struct {
	Text      string
	Part      int
	Chapter   int
	Embedding string // Vector.Literal() で直列化済みのベクトル
}

// EmbedAndSaveParams は EmbedAndSave の入力
type EmbedAndSaveParams struct {
	Text    string
	NewPart bool // true の場合は部番号を進めて章を1に戻す
}

// SaveParams は Embedding 計算済みのメッセージを保存する際の入力
type SaveParams struct {
	Text      string
	Part      int
	Chapter   int
	Embedding Vector
}

// SaveResult は保存結果を表す
type SaveResult struct {
	ID      uuid.UUID
	Part    int
	Chapter int
}
