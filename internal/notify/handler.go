package notify

import (
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/middleware"
)

type Handler struct {
	repo Repo
	log  *slog.Logger
}

func NewHandler(repo Repo, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repo: repo, log: log}
}

// List handles GET /api/v1/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	list, err := h.repo.ListByRecipient(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

// MarkAllRead handles POST /api/v1/notifications/read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	if err := h.repo.MarkAllRead(r.Context(), caller.Email); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "notifications marked read"})
}

// Clear handles DELETE /api/v1/notifications.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	if err := h.repo.DeleteAll(r.Context(), caller.Email); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "notifications cleared"})
}
