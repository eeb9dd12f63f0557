package payment

import (
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/middleware"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createIntentRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type createIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// CreateIntent handles POST /api/v1/payments/intent (buyer only).
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	var req createIntentRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	secret, err := h.svc.CreateIntent(r.Context(), caller.Email, req.Amount)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, createIntentResponse{ClientSecret: secret})
}

type confirmRequest struct {
	Coins         int    `json:"coins" validate:"required,gt=0"`
	Amount        int    `json:"amount" validate:"required,gt=0"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// Confirm handles POST /api/v1/payments/confirm. The confirmation is
// credited to the authenticated caller.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	var req confirmRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	p, err := h.svc.Confirm(r.Context(), caller.Email, req.Coins, req.Amount, req.TransactionID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/payments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	list, err := h.svc.ListForUser(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}
