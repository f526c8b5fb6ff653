package search

import (
	"time"

	"github.com/google/uuid"
)

// SearchResult は類似度検索でヒットしたメッセージを表す
type SearchResult struct {
	MessageID uuid.UUID
	Text      string
	Part      int
	Chapter   int
	CreatedAt time.Time
	Score     float64 // コサイン類似度（1 に近いほど類似）
}

// SearchParams は検索パラメータを表す
type SearchParams struct {
	Query string
	Limit int
}
