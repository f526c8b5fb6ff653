package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/core/search"
)

// stubService は IngestionService のテスト用実装
type stubService struct {
	embedSaveFn func(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error)
	saveFn      func(ctx context.Context, params ingestion.SaveParams) (*ingestion.SaveResult, error)
	latestFn    func(ctx context.Context) (mo.Option[*ingestion.Message], error)
	getFn       func(ctx context.Context, id uuid.UUID) (*ingestion.Message, error)
	listFn      func(ctx context.Context, limit int) ([]*ingestion.Message, error)
}

func (s *stubService) EmbedAndSave(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error) {
	return s.embedSaveFn(ctx, params)
}

func (s *stubService) Save(ctx context.Context, params ingestion.SaveParams) (*ingestion.SaveResult, error) {
	return s.saveFn(ctx, params)
}

func (s *stubService) Latest(ctx context.Context) (mo.Option[*ingestion.Message], error) {
	return s.latestFn(ctx)
}

func (s *stubService) Get(ctx context.Context, id uuid.UUID) (*ingestion.Message, error) {
	return s.getFn(ctx, id)
}

func (s *stubService) ListRecent(ctx context.Context, limit int) ([]*ingestion.Message, error) {
	return s.listFn(ctx, limit)
}

type stubSearcher struct {
	got     search.SearchParams
	results []*search.SearchResult
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, params search.SearchParams) ([]*search.SearchResult, error) {
	s.got = params
	return s.results, s.err
}

func newTestHandler(svc IngestionService, opts Options) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(svc, nil, opts, logger).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubService{}, Options{})

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])
}

func TestDebugEnv(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{ServiceKey: "secret-key"})
		rec := doRequest(t, h, http.MethodGet, "/debug/env", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("masked key", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{DebugEnvEndpoint: true, ServiceKey: "secret-key"})
		rec := doRequest(t, h, http.MethodGet, "/debug/env", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "secret...", decodeBody(t, rec)["service_key"])
	})

	t.Run("missing key", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{DebugEnvEndpoint: true})
		rec := doRequest(t, h, http.MethodGet, "/debug/env", "")
		assert.Equal(t, "MISSING", decodeBody(t, rec)["service_key"])
	})
}

func TestEmbedSave_Success(t *testing.T) {
	id := uuid.New()
	var got ingestion.EmbedAndSaveParams
	svc := &stubService{
		embedSaveFn: func(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error) {
			got = params
			return &ingestion.SaveResult{ID: id, Part: 2, Chapter: 1}, nil
		},
	}
	h := newTestHandler(svc, Options{})

	rec := doRequest(t, h, http.MethodPost, "/embed-save", `{"text":"hello","newpart":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ingestion.EmbedAndSaveParams{Text: "hello", NewPart: true}, got)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["inserted"])
	assert.Equal(t, id.String(), body["id"])
	assert.EqualValues(t, 2, body["part"])
	assert.EqualValues(t, 1, body["chapter"])
}

func TestEmbedSave_RequestErrors(t *testing.T) {
	svc := &stubService{
		embedSaveFn: func(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := newTestHandler(svc, Options{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed json", body: `{"text":`, status: http.StatusBadRequest},
		{name: "empty body", body: "", status: http.StatusBadRequest},
		{name: "missing text", body: `{"newpart":false}`, status: http.StatusUnprocessableEntity},
		{name: "text wrong type", body: `{"text":123}`, status: http.StatusUnprocessableEntity},
		{name: "newpart wrong type", body: `{"text":"a","newpart":"yes"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/embed-save", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["detail"])
		})
	}
}

func TestEmbedSave_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: fmt.Errorf("%w: text is required", ingestion.ErrValidation), status: http.StatusUnprocessableEntity},
		{name: "store read", err: fmt.Errorf("%w: boom", ingestion.ErrStoreRead), status: http.StatusInternalServerError},
		{name: "embedding", err: fmt.Errorf("%w: upstream", ingestion.ErrEmbedding), status: http.StatusBadGateway},
		{name: "store write", err: fmt.Errorf("%w: boom", ingestion.ErrStoreWrite), status: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("unexpected"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				embedSaveFn: func(ctx context.Context, params ingestion.EmbedAndSaveParams) (*ingestion.SaveResult, error) {
					return nil, tt.err
				},
			}
			h := newTestHandler(svc, Options{})

			rec := doRequest(t, h, http.MethodPost, "/embed-save", `{"text":"hello"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeBody(t, rec)["detail"])
		})
	}
}

func TestSave(t *testing.T) {
	id := uuid.New()
	var got ingestion.SaveParams
	svc := &stubService{
		saveFn: func(ctx context.Context, params ingestion.SaveParams) (*ingestion.SaveResult, error) {
			got = params
			return &ingestion.SaveResult{ID: id, Part: params.Part, Chapter: params.Chapter}, nil
		},
	}
	h := newTestHandler(svc, Options{})

	rec := doRequest(t, h, http.MethodPost, "/save", `{"text":"t","part":1,"chapter":3,"embedding":[0.5,-0.25]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t", got.Text)
	assert.Equal(t, 1, got.Part)
	assert.Equal(t, 3, got.Chapter)
	assert.Equal(t, ingestion.Vector{0.5, -0.25}, got.Embedding)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["inserted"])
	assert.Equal(t, id.String(), body["id"])
	assert.NotContains(t, body, "part")
}

func TestSave_MissingFields(t *testing.T) {
	h := newTestHandler(&stubService{}, Options{})

	for _, body := range []string{
		`{"part":1,"chapter":1,"embedding":[0.1]}`,
		`{"text":"t","chapter":1,"embedding":[0.1]}`,
		`{"text":"t","part":1,"embedding":[0.1]}`,
		`{"text":"t","part":1,"chapter":1}`,
	} {
		rec := doRequest(t, h, http.MethodPost, "/save", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestLatestMessage(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := &ingestion.Message{ID: uuid.New(), Text: "latest", Part: 1, Chapter: 4, CreatedAt: created}

	t.Run("found", func(t *testing.T) {
		svc := &stubService{
			latestFn: func(ctx context.Context) (mo.Option[*ingestion.Message], error) {
				return mo.Some(msg), nil
			},
		}
		rec := doRequest(t, newTestHandler(svc, Options{}), http.MethodGet, "/messages/latest", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "latest", body["text"])
		assert.EqualValues(t, 4, body["chapter"])
		assert.NotContains(t, body, "embedding")
	})

	t.Run("empty store", func(t *testing.T) {
		svc := &stubService{
			latestFn: func(ctx context.Context) (mo.Option[*ingestion.Message], error) {
				return mo.None[*ingestion.Message](), nil
			},
		}
		rec := doRequest(t, newTestHandler(svc, Options{}), http.MethodGet, "/messages/latest", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetMessage(t *testing.T) {
	id := uuid.New()
	svc := &stubService{
		getFn: func(ctx context.Context, got uuid.UUID) (*ingestion.Message, error) {
			if got != id {
				return nil, fmt.Errorf("%w: %s", ingestion.ErrMessageNotFound, got)
			}
			return &ingestion.Message{ID: id, Text: "x", Part: 1, Chapter: 1, Embedding: ingestion.Vector{0.5}}, nil
		},
	}
	h := newTestHandler(svc, Options{})

	rec := doRequest(t, h, http.MethodGet, "/messages/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{0.5}, decodeBody(t, rec)["embedding"])

	rec = doRequest(t, h, http.MethodGet, "/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/messages/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessages(t *testing.T) {
	var gotLimit int
	svc := &stubService{
		listFn: func(ctx context.Context, limit int) ([]*ingestion.Message, error) {
			gotLimit = limit
			return []*ingestion.Message{{ID: uuid.New(), Text: "a", Part: 1, Chapter: 2}}, nil
		},
	}
	h := newTestHandler(svc, Options{})

	rec := doRequest(t, h, http.MethodGet, "/messages?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Len(t, decodeBody(t, rec)["messages"], 1)

	rec = doRequest(t, h, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, gotLimit)

	rec = doRequest(t, h, http.MethodGet, "/messages?limit=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCORS(t *testing.T) {
	preflight := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/embed-save", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed origin", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{AllowedOrigins: []string{"https://app.example"}})
		rec := preflight(h, "https://app.example")
		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{AllowedOrigins: []string{"https://app.example"}})
		rec := preflight(h, "https://evil.example")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origins configured", func(t *testing.T) {
		h := newTestHandler(&stubService{}, Options{})
		rec := preflight(h, "https://app.example")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSearchMessages(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	id := uuid.New()
	searcher := &stubSearcher{results: []*search.SearchResult{
		{MessageID: id, Text: "similar", Part: 1, Chapter: 2, Score: 0.87},
	}}
	h := NewServer(&stubService{}, searcher, Options{}, logger).Handler()

	rec := doRequest(t, h, http.MethodGet, "/messages/search?q=hello&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.SearchParams{Query: "hello", Limit: 3}, searcher.got)

	results, ok := decodeBody(t, rec)["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	assert.Equal(t, id.String(), hit["id"])
	assert.InDelta(t, 0.87, hit["score"], 1e-9)

	searcher.err = fmt.Errorf("%w: upstream", ingestion.ErrEmbedding)
	rec = doRequest(t, h, http.MethodGet, "/messages/search?q=hello", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchMessages_DisabledWithoutSearcher(t *testing.T) {
	svc := &stubService{
		getFn: func(ctx context.Context, id uuid.UUID) (*ingestion.Message, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := newTestHandler(svc, Options{})

	// search は uuid として解釈され 400 になる
	rec := doRequest(t, h, http.MethodGet, "/messages/search?q=hello", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
