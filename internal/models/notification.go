package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a best-effort side record of a state transition. The
// ledger never depends on it.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	ToEmail     string    `json:"to_email"`
	Message     string    `json:"message"`
	ActionRoute string    `json:"action_route"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"time"`
}
