package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oraculo-ai/oraculo/internal/api"
	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/pagination"
)

type SessionStore interface {
	ListSessions(ctx context.Context, limit int, cursor string) (*pagination.PageResult[domain.SessionSummary], error)
	LoadHistory(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type SessionHandler struct {
	store SessionStore
}

func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

type SessionSummaryResponse struct {
	SessionID    string `json:"session_id"`
	MessageCount int64  `json:"message_count"`
	LastActivity string `json:"last_activity"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Position  int64  `json:"position"`
	CreatedAt string `json:"created_at"`
}

// List handles GET /sessions with cursor pagination.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.store.ListSessions(r.Context(), limit, cursor)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]SessionSummaryResponse, 0, len(page.Items))
	for _, s := range page.Items {
		items = append(items, SessionSummaryResponse{
			SessionID:    s.SessionID,
			MessageCount: s.MessageCount,
			LastActivity: s.LastActivity.UTC().Format(time.RFC3339),
		})
	}

	api.Success(w, http.StatusOK, pagination.PageResult[SessionSummaryResponse]{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// Messages handles GET /sessions/{id}/messages. An unknown session returns an
// empty list, matching how sessions come into existence implicitly.
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	messages, err := h.store.LoadHistory(r.Context(), sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Position:  m.Position,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	api.Success(w, http.StatusOK, items)
}
