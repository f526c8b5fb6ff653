package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/core/search"
	"github.com/jinford/ram-engine/internal/infra/openai"
	"github.com/jinford/ram-engine/internal/infra/postgres"
	"github.com/jinford/ram-engine/internal/infra/postgres/sqlc"
	"github.com/jinford/ram-engine/internal/infra/tokenizer"
	"github.com/jinford/ram-engine/internal/platform/config"
	"github.com/jinford/ram-engine/internal/platform/database"
)

// ServiceContainer はアプリケーションの依存関係を保持する。
type ServiceContainer struct {
	IngestionService *ingestion.IngestionService
	SearchService    *search.SearchService

	config   *config.Config
	logger   *slog.Logger
	database *database.Database
}

type containerOptions struct {
	logger       *slog.Logger
	embedder     ingestion.Embedder
	tokenCounter ingestion.TokenCounter
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder ingestion.Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerTokenCounter は TokenCounter を差し替える
func WithContainerTokenCounter(counter ingestion.TokenCounter) ContainerOption {
	return func(opts *containerOptions) {
		opts.tokenCounter = counter
	}
}

// NewContainer は設定からコンテナを生成する。
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	db, err := database.New(ctx, ConnectionParams(cfg))
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	cont, err := NewContainerWithDB(cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cont, nil
}

// ConnectionParams は設定からデータベース接続パラメータを作成する。
func ConnectionParams(cfg *config.Config) database.ConnectionParams {
	return database.ConnectionParams{
		URL:      cfg.Database.URL,
		Password: cfg.Database.DatabasePassword(),
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}
}

// NewContainerWithDB は既存の Database を受け取りコンテナを生成する。
func NewContainerWithDB(cfg *config.Config, db *database.Database, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Embedder (OpenAI)
	embedder := options.embedder
	if embedder == nil && cfg.OpenAI.APIKey == "" {
		// /save や参照系は API キー無しでも動作させる
		options.logger.Warn("OPENAI_API_KEY is not set, embed-save requests will fail")
		embedder = &missingKeyEmbedder{dimension: cfg.OpenAI.EmbeddingDimension}
	}
	if embedder == nil {
		openaiEmbedder, err := openai.NewEmbedder(
			cfg.OpenAI.APIKey,
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("OpenAI Embedder 初期化に失敗しました: %w", err)
		}
		embedder = openaiEmbedder
	}

	// TokenCounter (tiktoken)。読み込めない場合はトークン数の検証を行わない
	tokenCounter := options.tokenCounter
	if tokenCounter == nil {
		counter, err := tokenizer.NewCounter(cfg.OpenAI.EmbeddingModel)
		if err != nil {
			options.logger.Warn("token counter unavailable, skipping input token validation", "error", err)
		} else {
			tokenCounter = counter
		}
	}

	// Repository (PostgreSQL)
	queries := sqlc.New(db.Pool)
	repo := postgres.NewMessageRepository(queries)

	serviceOpts := []ingestion.IngestionServiceOption{
		ingestion.WithIngestionLogger(options.logger),
	}
	if tokenCounter != nil {
		serviceOpts = append(serviceOpts, ingestion.WithTokenLimit(tokenCounter, cfg.OpenAI.MaxInputTokens))
	}
	if cfg.NumberingLock {
		options.logger.Info("numbering lock enabled")
		serviceOpts = append(serviceOpts, ingestion.WithNumberingLocker(
			newAdvisoryNumberingLocker(database.NewTransactionProvider(db.Pool)),
		))
	}

	return &ServiceContainer{
		IngestionService: ingestion.NewIngestionService(repo, embedder, serviceOpts...),
		SearchService:    search.NewSearchService(postgres.NewSearchRepository(queries), embedder, options.logger),
		config:           cfg,
		logger:           options.logger,
		database:         db,
	}, nil
}

// Close は内部リソースを解放する。
func (c *ServiceContainer) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す。
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Config は設定を返す。
func (c *ServiceContainer) Config() *config.Config {
	return c.config
}

// Database はデータベースを返す。
func (c *ServiceContainer) Database() *database.Database {
	if c == nil {
		return nil
	}
	return c.database
}

// --- アダプタ群 ---

// numberingLockKey は採番用アドバイザリロックのキー
var numberingLockKey = database.GenerateLockID("messages", "numbering")

// advisoryNumberingLocker は TransactionProvider を ingestion.NumberingLocker に適合させる。
type advisoryNumberingLocker struct {
	tx *database.TransactionProvider
}

func newAdvisoryNumberingLocker(tx *database.TransactionProvider) *advisoryNumberingLocker {
	return &advisoryNumberingLocker{tx: tx}
}

func (l *advisoryNumberingLocker) WithNumberingLock(ctx context.Context, fn func(ctx context.Context, repo ingestion.Repository) error) error {
	_, err := database.Transact(ctx, l.tx, func(a *database.Adapter) (struct{}, error) {
		if err := a.Locks.Acquire(ctx, numberingLockKey); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, fn(ctx, a.Messages)
	})
	return err
}

// missingKeyEmbedder は API キー未設定時に使用する Embedder。
type missingKeyEmbedder struct {
	dimension int
}

func (e *missingKeyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, openai.ErrAPIKeyNotSet
}

func (e *missingKeyEmbedder) Dimension() int {
	return e.dimension
}
