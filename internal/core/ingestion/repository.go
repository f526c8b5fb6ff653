package ingestion

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Repository はメッセージ行の永続化を抽象化するインターフェース
type Repository interface {
	// GetLatestMessage は created_at が最も新しい行を返す（Embedding は含まない）
	GetLatestMessage(ctx context.Context) (mo.Option[*Message], error)

	// InsertMessage は新しい行を挿入し、ストアが採番した ID を含む行を返す
	InsertMessage(ctx context.Context, msg NewMessage) (*Message, error)

	// GetMessage は ID で行を取得する（Embedding を含む）
	// 存在しない場合は ErrMessageNotFound を返す
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)

	// ListRecentMessages は新しい順に最大 limit 件を返す
	ListRecentMessages(ctx context.Context, limit int) ([]*Message, error)
}

// Embedder はテキストの Embedding 生成インターフェース
type Embedder interface {
	// Embed は単一テキストの Embedding を生成する
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension はベクトル次元数を返す
	Dimension() int
}

// TokenCounter は入力テキストのトークン数を数える
type TokenCounter interface {
	CountTokens(text string) int
}

// NumberingLocker は「最新行の読み取り -> 採番 -> 挿入」を排他的に実行する。
// fn に渡される Repository は排他区間内でのみ有効。
type NumberingLocker interface {
	WithNumberingLock(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
