package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/swimbench/swimbench/internal/session"
)

// Pagination defaults and caps for list endpoints.
const (
	sessionsDefaultLimit = 50
	sessionsMaxLimit     = 200
	messagesDefaultLimit = 100
	messagesMaxLimit     = 1000
	maxListOffset        = 10000
)

// sessionHandler serves session CRUD endpoints.
type sessionHandler struct {
	store  *session.Store
	logger *slog.Logger
}

// sessionItem is the JSON representation of a session in responses.
type sessionItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// messageItem is the JSON representation of a message in history responses.
type messageItem struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toSessionItem(sess *session.Session) sessionItem {
	return sessionItem{
		ID:           sess.ID.String(),
		Title:        sess.Title,
		MessageCount: sess.MessageCount,
		CreatedAt:    sess.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    sess.UpdatedAt.Format(time.RFC3339),
	}
}

// createSessionRequest is the optional body for POST /api/v1/sessions.
type createSessionRequest struct {
	Title string `json:"title"`
}

// createSession handles POST /api/v1/sessions.
// The body is optional; an empty body creates an untitled session.
func (h *sessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	sess, err := h.store.CreateSession(r.Context(), req.Title, "")
	if err != nil {
		h.logger.Error("creating session", "error", err)
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create session", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, toSessionItem(sess), h.logger)
}

// listSessions handles GET /api/v1/sessions, paginated, most recent first.
func (h *sessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", sessionsDefaultLimit), sessionsMaxLimit)
	offset := parseIntParam(r, "offset", 0)
	if offset > maxListOffset {
		WriteError(w, http.StatusBadRequest, "invalid_offset", "offset must be 10000 or less", h.logger)
		return
	}

	sessions, err := h.store.ListSessions(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing sessions", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions", h.logger)
		return
	}

	total, err := h.store.CountSessions(r.Context())
	if err != nil {
		h.logger.Error("counting sessions", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions", h.logger)
		return
	}

	items := make([]sessionItem, len(sessions))
	for i, sess := range sessions {
		items[i] = toSessionItem(sess)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	}, h.logger)
}

// getSessionMessages handles GET /api/v1/sessions/{id}/messages: paginated
// history in chronological order.
func (h *sessionHandler) getSessionMessages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid session ID", h.logger)
		return
	}

	limit := min(parseIntParam(r, "limit", messagesDefaultLimit), messagesMaxLimit)
	offset := parseIntParam(r, "offset", 0)
	if offset > maxListOffset {
		WriteError(w, http.StatusBadRequest, "invalid_offset", "offset must be 10000 or less", h.logger)
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("getting session", "error", err, "session_id", id)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get session", h.logger)
		return
	}

	messages, err := h.store.GetMessages(r.Context(), id, limit, offset)
	if err != nil {
		h.logger.Error("getting messages", "error", err, "session_id", id)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get messages", h.logger)
		return
	}

	items := make([]messageItem, len(messages))
	for i, msg := range messages {
		items[i] = messageItem{
			ID:        msg.ID.String(),
			Role:      msg.Role,
			Content:   msg.Text(),
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": sess.MessageCount,
	}, h.logger)
}

// deleteSession handles DELETE /api/v1/sessions/{id}.
func (h *sessionHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid session ID", h.logger)
		return
	}

	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("deleting session", "error", err, "session_id", id)
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete session", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// parseIntParam reads an integer query parameter, falling back to def when
// the parameter is absent, malformed, or negative.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
