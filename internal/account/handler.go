package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
)

// ProfileRepo resolves the caller's full profile.
type ProfileRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	profiles ProfileRepo
	log      *slog.Logger
}

func NewHandler(profiles ProfileRepo, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{profiles: profiles, log: log}
}

// Me handles GET /api/v1/users/me: the caller's profile with the current
// coin balance.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	u, err := h.profiles.GetByEmail(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, u)
}
