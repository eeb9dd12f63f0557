package auth

import (
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	PhotoURL string `json:"photo_url"`
	Role     string `json:"role" validate:"required,oneof=worker buyer admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password, req.PhotoURL, req.Role)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: u})
}
