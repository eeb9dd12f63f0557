package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/taskcoin/backend/internal/models"
)

type JobArgs struct {
	ToEmail     string `json:"to_email"`
	Message     string `json:"message"`
	ActionRoute string `json:"action_route"`
}

func (JobArgs) Kind() string { return "notification" }

// Repo is the notification persistence surface used by the worker and the
// handler.
type Repo interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, toEmail string) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, toEmail string) error
	DeleteAll(ctx context.Context, toEmail string) error
}

// Worker drains the notification queue into the notifications table.
type Worker struct {
	river.WorkerDefaults[JobArgs]
	repo Repo
}

func NewWorker(repo Repo) *Worker {
	return &Worker{repo: repo}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[JobArgs]) error {
	return w.repo.Insert(ctx, &models.Notification{
		ID:          uuid.New(),
		ToEmail:     job.Args.ToEmail,
		Message:     job.Args.Message,
		ActionRoute: job.Args.ActionRoute,
		Read:        false,
	})
}
