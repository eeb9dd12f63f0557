// Package admin is the moderation surface: user listing, role changes and
// removal. Removing a user ends all balance mutation for them; the ledger
// contract stops at the row.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

// UserDirectory is the user administration surface.
type UserDirectory interface {
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	users UserDirectory
	log   *slog.Logger
}

func NewHandler(users UserDirectory, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{users: users, log: log}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=worker buyer admin"`
}

// UpdateRole handles PATCH /api/v1/admin/users/{id}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	var req updateRoleRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	if err := h.users.UpdateRole(r.Context(), id, req.Role); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("role updated to %s", req.Role)})
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "user removed"})
}
