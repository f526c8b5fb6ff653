package postgres

import (
	"context"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/ram-engine/internal/core/search"
	"github.com/jinford/ram-engine/internal/infra/postgres/sqlc"
)

// SearchRepository は core/search.Repository を実装する PostgreSQL リポジトリ。
type SearchRepository struct {
	q sqlc.Querier
}

// NewSearchRepository は新しい SearchRepository を返す。
func NewSearchRepository(q sqlc.Querier) *SearchRepository {
	return &SearchRepository{q: q}
}

var _ search.Repository = (*SearchRepository)(nil)

func (r *SearchRepository) SearchMessages(ctx context.Context, queryVector []float64, limit int) ([]*search.SearchResult, error) {
	rows, err := r.q.SearchMessages(ctx, sqlc.SearchMessagesParams{
		QueryVector: pgvector.NewVector(toFloat32(queryVector)),
		RowLimit:    int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", describe(err))
	}

	results := make([]*search.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, &search.SearchResult{
			MessageID: PgtypeToUUID(row.ID),
			Text:      row.Text,
			Part:      int(row.Part),
			Chapter:   int(row.Chapter),
			CreatedAt: PgtypeToTime(row.CreatedAt),
			Score:     row.Score,
		})
	}
	return results, nil
}
