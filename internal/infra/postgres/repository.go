package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/infra/postgres/sqlc"
)

// MessageRepository は ingestion.Repository インターフェースを実装する PostgreSQL リポジトリです
type MessageRepository struct {
	q sqlc.Querier
}

// NewMessageRepository は新しい MessageRepository を作成します
func NewMessageRepository(q sqlc.Querier) *MessageRepository {
	return &MessageRepository{q: q}
}

// コンパイル時の型チェック
var _ ingestion.Repository = (*MessageRepository)(nil)

// GetLatestMessage は created_at が最も新しい行を取得します。行が無い場合は None を返します
func (r *MessageRepository) GetLatestMessage(ctx context.Context) (mo.Option[*ingestion.Message], error) {
	row, err := r.q.GetLatestMessage(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*ingestion.Message](), nil
		}
		return mo.None[*ingestion.Message](), fmt.Errorf("failed to get latest message: %w", describe(err))
	}

	return mo.Some(&ingestion.Message{
		ID:        PgtypeToUUID(row.ID),
		Text:      row.Text,
		Part:      int(row.Part),
		Chapter:   int(row.Chapter),
		CreatedAt: PgtypeToTime(row.CreatedAt),
	}), nil
}

// InsertMessage は新しい行を挿入します
func (r *MessageRepository) InsertMessage(ctx context.Context, msg ingestion.NewMessage) (*ingestion.Message, error) {
	pos := ingestion.Position{Part: msg.Part, Chapter: msg.Chapter}
	if !pos.InRange() {
		return nil, fmt.Errorf("position (%d, %d) does not fit in INTEGER columns", msg.Part, msg.Chapter)
	}

	row, err := r.q.InsertMessage(ctx, sqlc.InsertMessageParams{
		Text:      msg.Text,
		Part:      int32(msg.Part),
		Chapter:   int32(msg.Chapter),
		Embedding: msg.Embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", describe(err))
	}

	return &ingestion.Message{
		ID:        PgtypeToUUID(row.ID),
		Text:      msg.Text,
		Part:      int(row.Part),
		Chapter:   int(row.Chapter),
		CreatedAt: PgtypeToTime(row.CreatedAt),
	}, nil
}

// GetMessage は ID で行を取得します
func (r *MessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (*ingestion.Message, error) {
	row, err := r.q.GetMessage(ctx, UUIDToPgtype(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ingestion.ErrMessageNotFound, id)
		}
		return nil, fmt.Errorf("failed to get message: %w", describe(err))
	}

	return &ingestion.Message{
		ID:        PgtypeToUUID(row.ID),
		Text:      row.Text,
		Part:      int(row.Part),
		Chapter:   int(row.Chapter),
		Embedding: VectorToDomain(row.Embedding),
		CreatedAt: PgtypeToTime(row.CreatedAt),
	}, nil
}

// ListRecentMessages は新しい順に最大 limit 件を取得します
func (r *MessageRepository) ListRecentMessages(ctx context.Context, limit int) ([]*ingestion.Message, error) {
	rows, err := r.q.ListRecentMessages(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", describe(err))
	}

	result := make([]*ingestion.Message, 0, len(rows))
	for _, row := range rows {
		result = append(result, &ingestion.Message{
			ID:        PgtypeToUUID(row.ID),
			Text:      row.Text,
			Part:      int(row.Part),
			Chapter:   int(row.Chapter),
			CreatedAt: PgtypeToTime(row.CreatedAt),
		})
	}

	return result, nil
}
