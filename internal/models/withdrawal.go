package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal statuses. The coin debit happens at request time; approval
// only records that the external payout went out.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
)

type Withdrawal struct {
	ID            uuid.UUID `json:"id"`
	WorkerEmail   string    `json:"worker_email"`
	WorkerName    string    `json:"worker_name"`
	Coin          int       `json:"withdrawal_coin"`
	Amount        int       `json:"withdrawal_amount"`
	PaymentSystem string    `json:"payment_system"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"withdraw_date"`
}
