package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinford/ram-engine/internal/core/ingestion"
)

const (
	// DefaultLimit は検索結果のデフォルト件数
	DefaultLimit = 10
	// MaxLimit は検索結果の最大件数
	MaxLimit = 100
)

// SearchService は保存済みメッセージの類似度検索を提供する
type SearchService struct {
	repo     Repository
	embedder ingestion.Embedder
	logger   *slog.Logger
}

// NewSearchService は新しいSearchServiceを作成する
func NewSearchService(repo Repository, embedder ingestion.Embedder, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
	}
}

// Search はクエリを Embedding 化し、類似するメッセージを返す
func (s *SearchService) Search(ctx context.Context, params SearchParams) ([]*SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ingestion.ErrValidation)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	raw, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		s.logger.Error("failed to embed search query", "error", err)
		return nil, fmt.Errorf("%w: %w", ingestion.ErrEmbedding, err)
	}
	queryVector := ingestion.Vector(raw)
	if err := queryVector.Validate(s.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("%w: malformed provider response: %w", ingestion.ErrEmbedding, err)
	}

	results, err := s.repo.SearchMessages(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %w", ingestion.ErrStoreRead, err)
	}

	s.logger.Debug("search completed", "limit", limit, "hits", len(results))
	return results, nil
}
