package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of buyer-posted work. RequiredWorkers is the remaining
// capacity: it goes down when a submission is accepted for review and back
// up when one is rejected. TotalPayable is fixed at creation and never
// recomputed, even if capacity moves.
type Task struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Detail          string    `json:"detail"`
	RequiredWorkers int       `json:"required_workers"`
	PayableAmount   int       `json:"payable_amount"`
	TotalPayable    int       `json:"total_payable"`
	CompletionDate  time.Time `json:"completion_date"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        string    `json:"image_url,omitempty"`
	BuyerEmail      string    `json:"buyer_email"`
	CreatedAt       time.Time `json:"created_at"`
}

// UnspentEscrow is the portion of the original escrow not yet committed to
// pending or approved submissions. It is what the buyer gets back when the
// task is closed.
func (t *Task) UnspentEscrow() int {
	return t.RequiredWorkers * t.PayableAmount
}
