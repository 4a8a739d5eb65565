package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/swimbench/swimbench/internal/knowledge"
)

// knowledgeHandler reloads the knowledge base from configured sources.
type knowledgeHandler struct {
	store   *knowledge.Store
	sources []knowledge.Source
	logger  *slog.Logger
}

// loadKnowledge handles POST /loadknowledge: clears the knowledge base and
// reloads every configured source.
//
// There is no retry and no rollback: a failure after Clear leaves the
// knowledge base empty until the next successful reload. Concurrent calls
// are not serialized; two racing reloads end with one racer's content set.
func (h *knowledgeHandler) loadKnowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.Info("starting knowledge loading process", "sources", len(h.sources))

	if err := h.store.Clear(ctx); err != nil {
		h.logger.Error("loading knowledge", "error", err)
		WriteError(w, http.StatusInternalServerError, "load_failed",
			fmt.Sprintf("Error loading knowledge: %v", err), h.logger)
		return
	}

	loaded, err := h.store.Load(ctx, h.sources)
	if err != nil {
		h.logger.Error("loading knowledge", "error", err)
		WriteError(w, http.StatusInternalServerError, "load_failed",
			fmt.Sprintf("Error loading knowledge: %v", err), h.logger)
		return
	}

	h.logger.Info("knowledge loading completed", "documents", loaded)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":           "success",
		"message":          "Knowledge base loaded successfully",
		"loaded_documents": loaded,
	}, h.logger)
}
