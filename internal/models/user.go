package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Every authenticated caller carries exactly one.
const (
	RoleWorker = "worker"
	RoleBuyer  = "buyer"
	RoleAdmin  = "admin"
)

// Starting coin balances granted at registration, by role.
const (
	StartingCoinWorker = 10
	StartingCoinBuyer  = 50
	StartingCoinAdmin  = 0
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Role         string    `json:"role"`
	Coin         int       `json:"coin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StartingCoin returns the initial balance for a role. Unknown roles get 0.
func StartingCoin(role string) int {
	switch role {
	case RoleWorker:
		return StartingCoinWorker
	case RoleBuyer:
		return StartingCoinBuyer
	default:
		return StartingCoinAdmin
	}
}
