package escrow

import (
	"log/slog"
	"net/http"
	"time"

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

type createTaskRequest struct {
	Title           string    `json:"title" validate:"required"`
	Detail          string    `json:"detail"`
	RequiredWorkers int       `json:"required_workers" validate:"required,gt=0"`
	PayableAmount   int       `json:"payable_amount" validate:"required,gt=0"`
	CompletionDate  time.Time `json:"completion_date" validate:"required"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        string    `json:"image_url"`
}

type updateTaskRequest struct {
	Title          string `json:"title" validate:"required"`
	Detail         string `json:"detail"`
	SubmissionInfo string `json:"submission_info"`
}

// Create handles POST /api/v1/tasks (buyer only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	var req createTaskRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	t, err := h.svc.Create(r.Context(), caller.Email, CreateInput{
		Title:           req.Title,
		Detail:          req.Detail,
		RequiredWorkers: req.RequiredWorkers,
		PayableAmount:   req.PayableAmount,
		CompletionDate:  req.CompletionDate,
		SubmissionInfo:  req.SubmissionInfo,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, t)
}

// Update handles PATCH /api/v1/tasks/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	var req updateTaskRequest
	if err := httpapi.DecodeValid(r, &req); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	if err := h.svc.Update(r.Context(), caller.Email, id, req.Title, req.Detail, req.SubmissionInfo); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "task updated"})
}

// Delete handles DELETE /api/v1/tasks/{id}. The unspent escrow goes back to
// the buyer before the task disappears.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	isAdmin := caller.Role == models.RoleAdmin
	if err := h.svc.Close(r.Context(), caller.Email, isAdmin, id); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

// ListOpen handles GET /api/v1/tasks.
func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListOpen(r.Context())
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/v1/tasks/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, h.log, ledger.ErrNotFound)
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, t)
}

// ListByBuyer handles GET /api/v1/tasks/buyer (buyer only).
func (h *Handler) ListByBuyer(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromCtx(r.Context())
	tasks, err := h.svc.ListByBuyer(r.Context(), caller.Email)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, tasks)
}
