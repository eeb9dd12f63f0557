// Package httpapi holds the JSON plumbing shared by every handler: response
// encoding, the failure-taxonomy → status mapping, and request validation.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/ledger"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError maps a taxonomy error to its stable status category. Anything
// outside the taxonomy is logged and reported as a plain 500 so internals
// never leak to callers.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrAlreadyExists):
		WriteJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		WriteJSON(w, http.StatusPaymentRequired, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrCapacityExhausted):
		WriteJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInvalidTransition):
		WriteJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrMissingField):
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrForbidden):
		WriteJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrStoreUnavailable):
		if log != nil {
			log.Error("store unavailable", "error", err)
		}
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
	default:
		if log != nil {
			log.Error("unhandled error", "error", err)
		}
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
