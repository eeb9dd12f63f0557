package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission statuses. pending is the only non-terminal state.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is one worker's response to a task. PayableAmount, TaskTitle
// and BuyerEmail are captured at submit time and stay authoritative for the
// payout even if the task changes or disappears later.
type Submission struct {
	ID            uuid.UUID `json:"id"`
	TaskID        uuid.UUID `json:"task_id"`
	TaskTitle     string    `json:"task_title"`
	PayableAmount int       `json:"payable_amount"`
	WorkerEmail   string    `json:"worker_email"`
	WorkerName    string    `json:"worker_name"`
	BuyerEmail    string    `json:"buyer_email"`
	Detail        string    `json:"detail"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
