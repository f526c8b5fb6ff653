package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/samber/mo"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/core/search"
)

// IngestionService は HTTP ハンドラが利用するユースケース
type IngestionService interface {
	EmbedAndSave(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error)
	Save(ctx context.Context, params ingestion.SaveParams) (*ingestion.SaveResult, error)
	Latest(ctx context.Context) (mo.Option[*ingestion.Message], error)
	Get(ctx context.Context, id uuid.UUID) (*ingestion.Message, error)
	ListRecent(ctx context.Context, limit int) ([]*ingestion.Message, error)
}

// SearchService は類似度検索のユースケース
type SearchService interface {
	Search(ctx context.Context, params search.SearchParams) ([]*search.SearchResult, error)
}

// Options は HTTP サーバの設定
type Options struct {
	AllowedOrigins   []string
	DebugEnvEndpoint bool
	ServiceKey       string // /debug/env で先頭のみ返す資格情報
}

// Server は RAM Engine の HTTP API
type Server struct {
	service  IngestionService
	searcher SearchService // nil の場合 /messages/search は登録しない
	options  Options
	logger   *slog.Logger
}

// NewServer は新しい Server を作成する
func NewServer(service IngestionService, searcher SearchService, options Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:  service,
		searcher: searcher,
		options:  options,
		logger:   logger,
	}
}

// Handler はルーティング・CORS・アクセスログを適用したハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.options.DebugEnvEndpoint {
		mux.HandleFunc("GET /debug/env", s.handleDebugEnv)
	}
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("POST /embed-save", s.handleEmbedSave)
	mux.HandleFunc("GET /messages", s.handleListMessages)
	mux.HandleFunc("GET /messages/latest", s.handleLatestMessage)
	mux.HandleFunc("GET /messages/{id}", s.handleGetMessage)
	if s.searcher != nil {
		mux.HandleFunc("GET /messages/search", s.handleSearchMessages)
	}

	return s.accessLog(s.cors().Handler(mux))
}

func (s *Server) cors() *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: s.options.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}
	// rs/cors は空の AllowedOrigins を全許可として扱うため、明示的に拒否する
	if len(s.options.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(origin string) bool { return false }
	}
	return cors.New(opts)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
