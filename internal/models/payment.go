package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the append-only record of one confirmed external purchase of
// coins. TransactionID is the gateway's id and is unique, which is what
// makes confirmation replay-safe.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Coins         int       `json:"coins"`
	Amount        int       `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}
