// Package ledger defines the failure taxonomy shared by every component
// that moves coins or drives a state machine. Handlers translate these to
// HTTP statuses; services return them wrapped so callers can errors.Is.
package ledger

import "errors"

var (
	// ErrNotFound: the addressed entity (or email) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: a unique key (user email, payment transaction id)
	// is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientFunds: the debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCapacityExhausted: submission against a task with no open slots.
	ErrCapacityExhausted = errors.New("task capacity exhausted")
	// ErrInvalidTransition: state-machine call on an entity that is not in
	// the required source state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrMissingField: a required input is absent or out of range.
	ErrMissingField = errors.New("missing required field")
	// ErrForbidden: the caller's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable: the persistence layer failed; retrying later may
	// succeed.
	ErrStoreUnavailable = errors.New("store unavailable")
)
