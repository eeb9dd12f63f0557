package submission

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
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

type submitRequest struct {
	TaskID string `json:"task_id" validate:"required,uuid"`
	Detail string `json:"detail" validate:"required"`
}

// Submit handles POST /api/v1/submissions (worker only).
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	var req submitRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrMissingField)
		return
	}
	sub, err := h.svc.Submit(r.Context(), caller.Email, caller.Name, taskID, req.Detail)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, sub)
}

// Approve handles POST /api/v1/submissions/{id}/approve (buyer only).
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.SubmissionApproved)
}

// Reject handles POST /api/v1/submissions/{id}/reject (buyer only).
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.SubmissionRejected)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, to string) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	var sub *models.Submission
	if to == models.SubmissionApproved {
		sub, err = h.svc.Approve(r.Context(), caller.Email, caller.Name, id)
	} else {
		sub, err = h.svc.Reject(r.Context(), caller.Email, caller.Name, id)
	}
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, sub)
}

// ListForWorker handles GET /api/v1/submissions?page=&limit= (worker only).
func (h *Handler) ListForWorker(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, pages, err := h.svc.ListForWorker(r.Context(), caller.Email, page, limit)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total_pages": pages,
	})
}

// ListPending handles GET /api/v1/submissions/pending (buyer only).
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	subs, err := h.svc.ListPendingForBuyer(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, subs)
}
