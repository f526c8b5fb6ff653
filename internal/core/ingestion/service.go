package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

const (
	// DefaultListLimit は一覧取得時のデフォルト件数
	DefaultListLimit = 20
	// MaxListLimit は一覧取得時の最大件数
	MaxListLimit = 200
)

// IngestionService はテキストの Embedding 生成と保存のユースケースを提供する
type IngestionService struct {
	repo           Repository
	embedder       Embedder
	tokenCounter   TokenCounter // オプショナル
	maxInputTokens int
	locker         NumberingLocker // オプショナル（nil の場合は排他制御しない）
	logger         *slog.Logger
}

type ingestionServiceOptions struct {
	tokenCounter   TokenCounter
	maxInputTokens int
	locker         NumberingLocker
	logger         *slog.Logger
}

// IngestionServiceOption は IngestionService のオプション設定
type IngestionServiceOption func(*ingestionServiceOptions)

// WithIngestionLogger は IngestionService にロガーを設定する
func WithIngestionLogger(logger *slog.Logger) IngestionServiceOption {
	return func(o *ingestionServiceOptions) {
		o.logger = logger
	}
}

// WithTokenLimit は入力テキストのトークン上限を設定する
func WithTokenLimit(counter TokenCounter, maxTokens int) IngestionServiceOption {
	return func(o *ingestionServiceOptions) {
		o.tokenCounter = counter
		o.maxInputTokens = maxTokens
	}
}

// WithNumberingLocker は採番から挿入までを排他的に実行するロッカーを設定する
func WithNumberingLocker(locker NumberingLocker) IngestionServiceOption {
	return func(o *ingestionServiceOptions) {
		o.locker = locker
	}
}

// NewIngestionService は新しい IngestionService を作成する
func NewIngestionService(repo Repository, embedder Embedder, opts ...IngestionServiceOption) *IngestionService {
	options := ingestionServiceOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &IngestionService{
		repo:           repo,
		embedder:       embedder,
		tokenCounter:   options.tokenCounter,
		maxInputTokens: options.maxInputTokens,
		locker:         options.locker,
		logger:         options.logger,
	}
}

// Dimension は受け付ける Embedding の次元数を返す
func (s *IngestionService) Dimension() int {
	return s.embedder.Dimension()
}

// EmbedAndSave はテキストの Embedding を生成し、次の部・章番号を付けて保存する。
// いずれかの依存先が失敗した時点で終了し、リトライは行わない。
func (s *IngestionService) EmbedAndSave(ctx context.Context, params EmbedAndSaveParams) (*SaveResult, error) {
	// 途中でキャンセルさせない
	ctx = context.WithoutCancel(ctx)

	if err := s.validateText(params.Text); err != nil {
		return nil, err
	}

	if s.locker != nil {
		return s.embedAndSaveLocked(ctx, params)
	}

	pos, err := s.nextPosition(ctx, s.repo, params.NewPart)
	if err != nil {
		return nil, err
	}

	vector, err := s.embed(ctx, params.Text)
	if err != nil {
		return nil, err
	}

	return s.insert(ctx, s.repo, NewMessage{
		Text:      params.Text,
		Part:      pos.Part,
		Chapter:   pos.Chapter,
		Embedding: vector.Literal(),
	})
}

// embedAndSaveLocked はロックを保持する時間を短くするため、Embedding を先に生成してから
// 排他区間内で採番と挿入を行う
func (s *IngestionService) embedAndSaveLocked(ctx context.Context, params EmbedAndSaveParams) (*SaveResult, error) {
	vector, err := s.embed(ctx, params.Text)
	if err != nil {
		return nil, err
	}
	literal := vector.Literal()

	var result *SaveResult
	err = s.locker.WithNumberingLock(ctx, func(ctx context.Context, repo Repository) error {
		pos, err := s.nextPosition(ctx, repo, params.NewPart)
		if err != nil {
			return err
		}

		result, err = s.insert(ctx, repo, NewMessage{
			Text:      params.Text,
			Part:      pos.Part,
			Chapter:   pos.Chapter,
			Embedding: literal,
		})
		return err
	})
	if err != nil {
		if isTaxonomyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: numbering lock failed: %w", ErrStoreWrite, err)
	}

	return result, nil
}

// Save は計算済みの Embedding を持つメッセージをそのまま保存する
func (s *IngestionService) Save(ctx context.Context, params SaveParams) (*SaveResult, error) {
	ctx = context.WithoutCancel(ctx)

	if err := s.validateText(params.Text); err != nil {
		return nil, err
	}
	if params.Part < 1 {
		return nil, fmt.Errorf("%w: part must be a positive integer", ErrValidation)
	}
	if params.Chapter < 1 {
		return nil, fmt.Errorf("%w: chapter must be a positive integer", ErrValidation)
	}
	if params.Part > MaxPositionNumber {
		return nil, fmt.Errorf("%w: part must not exceed %d", ErrValidation, MaxPositionNumber)
	}
	if params.Chapter > MaxPositionNumber {
		return nil, fmt.Errorf("%w: chapter must not exceed %d", ErrValidation, MaxPositionNumber)
	}
	if err := params.Embedding.Validate(s.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.insert(ctx, s.repo, NewMessage{
		Text:      params.Text,
		Part:      params.Part,
		Chapter:   params.Chapter,
		Embedding: params.Embedding.Literal(),
	})
}

// Latest は最新のメッセージを返す
func (s *IngestionService) Latest(ctx context.Context) (mo.Option[*Message], error) {
	latest, err := s.repo.GetLatestMessage(ctx)
	if err != nil {
		return mo.None[*Message](), fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return latest, nil
}

// Get は ID でメッセージを取得する
func (s *IngestionService) Get(ctx context.Context, id uuid.UUID) (*Message, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}

	msg, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		if isTaxonomyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return msg, nil
}

// ListRecent は新しい順にメッセージを返す
func (s *IngestionService) ListRecent(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	messages, err := s.repo.ListRecentMessages(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return messages, nil
}

func (s *IngestionService) validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}

	if s.tokenCounter != nil && s.maxInputTokens > 0 {
		if tokens := s.tokenCounter.CountTokens(text); tokens > s.maxInputTokens {
			return fmt.Errorf("%w: text has %d tokens, exceeds limit of %d", ErrValidation, tokens, s.maxInputTokens)
		}
	}

	return nil
}

func (s *IngestionService) nextPosition(ctx context.Context, repo Repository, newPart bool) (Position, error) {
	latest, err := repo.GetLatestMessage(ctx)
	if err != nil {
		s.logger.Error("failed to read latest message", "error", err)
		return Position{}, fmt.Errorf("%w: failed to read latest message: %w", ErrStoreRead, err)
	}

	previous := mo.None[Position]()
	if msg, ok := latest.Get(); ok && msg != nil {
		previous = mo.Some(msg.Position())
	}

	pos := NextPosition(previous, newPart)
	s.logger.Debug("computed next position",
		"has_previous", previous.IsPresent(),
		"new_part", newPart,
		"part", pos.Part,
		"chapter", pos.Chapter,
	)

	if !pos.InRange() {
		s.logger.Warn("next position out of range", "part", pos.Part, "chapter", pos.Chapter)
		return Position{}, fmt.Errorf("%w: next position (%d, %d) exceeds %d", ErrValidation, pos.Part, pos.Chapter, MaxPositionNumber)
	}

	return pos, nil
}

func (s *IngestionService) embed(ctx context.Context, text string) (Vector, error) {
	raw, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Error("failed to create embedding", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	vector := Vector(raw)
	if err := vector.Validate(s.embedder.Dimension()); err != nil {
		s.logger.Error("embedding provider returned malformed vector", "error", err)
		return nil, fmt.Errorf("%w: malformed provider response: %w", ErrEmbedding, err)
	}

	return vector, nil
}

func (s *IngestionService) insert(ctx context.Context, repo Repository, msg NewMessage) (*SaveResult, error) {
	inserted, err := repo.InsertMessage(ctx, msg)
	if err != nil {
		s.logger.Error("failed to insert message", "part", msg.Part, "chapter", msg.Chapter, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if inserted == nil || inserted.ID == uuid.Nil {
		s.logger.Error("insert returned no message id", "part", msg.Part, "chapter", msg.Chapter)
		return nil, fmt.Errorf("%w: insert returned no message id", ErrStoreWrite)
	}

	s.logger.Info("message saved",
		"id", inserted.ID,
		"part", msg.Part,
		"chapter", msg.Chapter,
	)

	return &SaveResult{
		ID:      inserted.ID,
		Part:    msg.Part,
		Chapter: msg.Chapter,
	}, nil
}
