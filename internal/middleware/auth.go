package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskcoin/backend/internal/auth"
	"github.com/taskcoin/backend/internal/httpapi"
	"github.com/taskcoin/backend/internal/ledger"
)

type contextKey string

const ctxCallerKey contextKey = "caller"

// TokenValidator turns a bearer token into a verified caller identity.
type TokenValidator interface {
	ValidateToken(token string) (auth.Caller, error)
}

// JWTAuth authenticates requests by validating the Bearer token and
// putting the caller's (email, name, role) into request context.
func JWTAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				httpapi.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or malformed Authorization header"})
				return
			}
			caller, err := validator.ValidateToken(raw)
			if err != nil {
				httpapi.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}
			ctx := context.WithValue(r.Context(), ctxCallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role does not match. Composed after
// JWTAuth on every role-scoped route.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromCtx(r.Context())
			if !ok {
				httpapi.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			if !auth.Authorize(caller, role) {
				httpapi.WriteError(w, nil, ledger.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerFromCtx returns the authenticated caller, if any.
func CallerFromCtx(ctx context.Context) (auth.Caller, bool) {
	caller, ok := ctx.Value(ctxCallerKey).(auth.Caller)
	return caller, ok
}

// WithCaller returns a context carrying the given caller. Used by tests.
func WithCaller(ctx context.Context, caller auth.Caller) context.Context {
	return context.WithValue(ctx, ctxCallerKey, caller)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
