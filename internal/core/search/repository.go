package search

import "context"

// Repository はベクトル検索のデータアクセスを表すインターフェース
type Repository interface {
	// SearchMessages はクエリベクトルに近い順にメッセージを返す
	SearchMessages(ctx context.Context, queryVector []float64, limit int) ([]*SearchResult, error)
}
