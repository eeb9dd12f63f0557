package withdrawal

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/ledger"
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

type requestWithdrawalRequest struct {
	Coin          int    `json:"withdrawal_coin" validate:"required,gt=0"`
	Amount        int    `json:"withdrawal_amount" validate:"required,gt=0"`
	PaymentSystem string `json:"payment_system" validate:"required"`
}

// Request handles POST /api/v1/withdrawals (worker only).
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	var req requestWithdrawalRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	wd, err := h.svc.Request(r.Context(), caller.Email, caller.Name, req.Coin, req.Amount, req.PaymentSystem)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, wd)
}

// Approve handles POST /api/v1/withdrawals/{id}/approve (admin only).
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	wd, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, wd)
}

// ListForWorker handles GET /api/v1/withdrawals (worker only).
func (h *Handler) ListForWorker(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	list, err := h.svc.ListForWorker(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

// ListPending handles GET /api/v1/withdrawals/pending (admin only).
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPending(r.Context())
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}
