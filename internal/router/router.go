package router

import (
	"net/http"

	"github.com/taskcoin/backend/internal/account"
	"github.com/taskcoin/backend/internal/admin"
	"github.com/taskcoin/backend/internal/auth"
	"github.com/taskcoin/backend/internal/escrow"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/notify"
	"github.com/taskcoin/backend/internal/payment"
	"github.com/taskcoin/backend/internal/submission"
	"github.com/taskcoin/backend/internal/withdrawal"
)

// Handlers bundles everything the route table wires up.
type Handlers struct {
	Auth        *auth.Handler
	Account     *account.Handler
	Tasks       *escrow.Handler
	Submissions *submission.Handler
	Withdrawals *withdrawal.Handler
	Payments    *payment.Handler
	Notify      *notify.Handler
	Admin       *admin.Handler
}

// New builds the API routing under /api/v1. Role-scoped routes compose
// JWTAuth then RequireRole in front of the handler; the handlers themselves
// never re-check roles, only ownership.
func New(h Handlers, tokens middleware.TokenValidator) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	authed := middleware.JWTAuth(tokens)
	worker := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(models.RoleWorker)(fn))
	}
	buyer := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(models.RoleBuyer)(fn))
	}
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(models.RoleAdmin)(fn))
	}
	anyRole := func(fn http.HandlerFunc) http.Handler {
		return authed(fn)
	}

	mux.HandleFunc("POST "+base+"/auth/register", h.Auth.Register)
	mux.HandleFunc("POST "+base+"/auth/login", h.Auth.Login)

	mux.Handle("GET "+base+"/users/me", anyRole(h.Account.Me))

	mux.Handle("POST "+base+"/tasks", buyer(h.Tasks.Create))
	mux.Handle("GET "+base+"/tasks", worker(h.Tasks.ListOpen))
	mux.Handle("GET "+base+"/tasks/buyer", buyer(h.Tasks.ListByBuyer))
	mux.Handle("GET "+base+"/tasks/{id}", anyRole(h.Tasks.Get))
	mux.Handle("PATCH "+base+"/tasks/{id}", buyer(h.Tasks.Update))
	mux.Handle("DELETE "+base+"/tasks/{id}", anyRole(h.Tasks.Delete))

	mux.Handle("POST "+base+"/submissions", worker(h.Submissions.Submit))
	mux.Handle("GET "+base+"/submissions", worker(h.Submissions.ListForWorker))
	mux.Handle("GET "+base+"/submissions/pending", buyer(h.Submissions.ListPending))
	mux.Handle("POST "+base+"/submissions/{id}/approve", buyer(h.Submissions.Approve))
	mux.Handle("POST "+base+"/submissions/{id}/reject", buyer(h.Submissions.Reject))

	mux.Handle("POST "+base+"/withdrawals", worker(h.Withdrawals.Request))
	mux.Handle("GET "+base+"/withdrawals", worker(h.Withdrawals.ListForWorker))
	mux.Handle("GET "+base+"/withdrawals/pending", adminOnly(h.Withdrawals.ListPending))
	mux.Handle("POST "+base+"/withdrawals/{id}/approve", adminOnly(h.Withdrawals.Approve))

	mux.Handle("POST "+base+"/payments/intent", buyer(h.Payments.CreateIntent))
	mux.Handle("POST "+base+"/payments/confirm", buyer(h.Payments.Confirm))
	mux.Handle("GET "+base+"/payments", buyer(h.Payments.List))

	mux.Handle("GET "+base+"/notifications", anyRole(h.Notify.List))
	mux.Handle("POST "+base+"/notifications/read", anyRole(h.Notify.MarkAllRead))
	mux.Handle("DELETE "+base+"/notifications", anyRole(h.Notify.Clear))

	mux.Handle("GET "+base+"/admin/users", adminOnly(h.Admin.ListUsers))
	mux.Handle("PATCH "+base+"/admin/users/{id}/role", adminOnly(h.Admin.UpdateRole))
	mux.Handle("DELETE "+base+"/admin/users/{id}", adminOnly(h.Admin.DeleteUser))

	return mux
}
