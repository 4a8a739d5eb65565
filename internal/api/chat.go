package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/swimbench/swimbench/internal/agent"
	"github.com/swimbench/swimbench/internal/session"
	"github.com/swimbench/swimbench/internal/tools"
)

// maxChatBodyBytes caps the chat request body size.
const maxChatBodyBytes = 1 << 20 // 1MB

// chatHandler serves conversational benchmarking requests.
type chatHandler struct {
	agent    *agent.Agent
	sessions *session.Store
	emitter  tools.Emitter
	logger   *slog.Logger
}

// chatRequest is the body for POST /api/v1/chat.
// SessionID is optional; when absent a new session is created and its ID
// returned, so clients can continue the conversation.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse carries the agent's markdown reply.
type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// send handles POST /api/v1/chat: one conversation turn against the agent.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}

	// Tool lifecycle events from the agent's turn surface in the server logs.
	ctx := tools.ContextWithEmitter(r.Context(), h.emitter)

	var sessionID uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_id", "invalid session ID", h.logger)
			return
		}

		if _, err := h.sessions.GetSession(ctx, id); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
				return
			}
			h.logger.Error("getting session", "error", err, "session_id", id)
			WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get session", h.logger)
			return
		}
		sessionID = id
	} else {
		// GenerateTitle is best-effort; an empty title still gets a session.
		title := h.agent.GenerateTitle(ctx, req.Message)

		sess, err := h.sessions.CreateSession(ctx, title, h.agent.ModelName())
		if err != nil {
			h.logger.Error("creating session", "error", err)
			WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create session", h.logger)
			return
		}
		sessionID = sess.ID
	}

	reply, err := h.agent.Chat(ctx, sessionID, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "error", err, "session_id", sessionID)
		WriteError(w, http.StatusInternalServerError, "chat_failed", "failed to generate a reply", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, chatResponse{
		SessionID: sessionID.String(),
		Reply:     reply,
	}, h.logger)
}
