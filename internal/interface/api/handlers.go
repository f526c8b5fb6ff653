package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/core/search"
)

// maxRequestBytes はリクエストボディの上限
const maxRequestBytes = 1 << 20

type embedSaveRequest struct {
	Text    *string `json:"text"`
	NewPart bool    `json:"newpart"`
}

type saveRequest struct {
	Text      *string   `json:"text"`
	Part      *int      `json:"part"`
	Chapter   *int      `json:"chapter"`
	Embedding []float64 `json:"embedding"`
}

type saveResponse struct {
	Inserted bool      `json:"inserted"`
	ID       uuid.UUID `json:"id"`
	Part     int       `json:"part,omitempty"`
	Chapter  int       `json:"chapter,omitempty"`
}

type messageResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Part      int       `json:"part"`
	Chapter   int       `json:"chapter"`
	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type searchHitResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Part      int       `json:"part"`
	Chapter   int       `json:"chapter"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func toMessageResponse(msg *ingestion.Message) messageResponse {
	return messageResponse{
		ID:        msg.ID,
		Text:      msg.Text,
		Part:      msg.Part,
		Chapter:   msg.Chapter,
		Embedding: msg.Embedding,
		CreatedAt: msg.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDebugEnv(w http.ResponseWriter, r *http.Request) {
	masked := "MISSING"
	if key := s.options.ServiceKey; key != "" {
		if len(key) > 6 {
			key = key[:6]
		}
		masked = key + "..."
	}
	writeJSON(w, http.StatusOK, map[string]string{"service_key": masked})
}

func (s *Server) handleEmbedSave(w http.ResponseWriter, r *http.Request) {
	var req embedSaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		s.writeError(w, r, fmt.Errorf("%w: text is required", ingestion.ErrValidation))
		return
	}

	result, err := s.service.EmbedAndSave(r.Context(), ingestion.EmbedAndSaveParams{
		Text:    *req.Text,
		NewPart: req.NewPart,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{
		Inserted: true,
		ID:       result.ID,
		Part:     result.Part,
		Chapter:  result.Chapter,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch {
	case req.Text == nil:
		s.writeError(w, r, fmt.Errorf("%w: text is required", ingestion.ErrValidation))
		return
	case req.Part == nil:
		s.writeError(w, r, fmt.Errorf("%w: part is required", ingestion.ErrValidation))
		return
	case req.Chapter == nil:
		s.writeError(w, r, fmt.Errorf("%w: chapter is required", ingestion.ErrValidation))
		return
	case req.Embedding == nil:
		s.writeError(w, r, fmt.Errorf("%w: embedding is required", ingestion.ErrValidation))
		return
	}

	result, err := s.service.Save(r.Context(), ingestion.SaveParams{
		Text:      *req.Text,
		Part:      *req.Part,
		Chapter:   *req.Chapter,
		Embedding: ingestion.Vector(req.Embedding),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{Inserted: true, ID: result.ID})
}

func (s *Server) handleLatestMessage(w http.ResponseWriter, r *http.Request) {
	latest, err := s.service.Latest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	msg, ok := latest.Get()
	if !ok || msg == nil {
		s.writeError(w, r, fmt.Errorf("%w: no messages have been saved", ingestion.ErrMessageNotFound))
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid message id"})
		return
	}

	msg, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	messages, err := s.service.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, toMessageResponse(msg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": resp})
}

func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.searcher.Search(r.Context(), search.SearchParams{
		Query: r.URL.Query().Get("q"),
		Limit: limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	hits := make([]searchHitResponse, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchHitResponse{
			ID:        res.MessageID,
			Text:      res.Text,
			Part:      res.Part,
			Chapter:   res.Chapter,
			CreatedAt: res.CreatedAt,
			Score:     res.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

// queryLimit は limit クエリパラメータを読み取る。未指定の場合は 0 を返す。
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", ingestion.ErrValidation)
	}
	return limit, nil
}

// decode はリクエストボディを読み込む。失敗時はレスポンスを書き込み false を返す。
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		s.writeError(w, r, fmt.Errorf("%w: field %q has an invalid type", ingestion.ErrValidation, typeErr.Field))
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "request body too large"})
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "request body is empty"})
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed JSON body"})
	}
	return false
}

// statusFor はドメインエラーを HTTP ステータスに変換する
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingestion.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ingestion.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingestion.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
