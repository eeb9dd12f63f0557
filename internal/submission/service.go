// Package submission drives the pending → approved/rejected lifecycle of
// worker submissions and its coupling to task capacity and worker payout.
// Every transition is one transaction: the status flip and its linked
// balance or capacity change commit together or not at all.
package submission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/notify"
)

// TaskCapacityRepo hands out and returns task slots. ClaimSlot must check
// and decrement capacity in a single atomic operation.
type TaskCapacityRepo interface {
	ClaimSlot(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) (*models.Task, error)
	ReleaseSlot(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error
}

// Repo is the submission persistence surface. MarkStatus must apply the
// source-state check atomically with the flip.
type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	MarkStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error)
	ListByWorker(ctx context.Context, workerEmail string, page, limit int) ([]*models.Submission, int, error)
	ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error)
}

// Accounts is the coin-mutation surface, provided by the account service.
type Accounts interface {
	Credit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool     TxBeginner
	tasks    TaskCapacityRepo
	subs     Repo
	accounts Accounts
	emitter  notify.Emitter
}

func NewService(pool TxBeginner, tasks TaskCapacityRepo, subs Repo, accounts Accounts, emitter notify.Emitter) *Service {
	return &Service{pool: pool, tasks: tasks, subs: subs, accounts: accounts, emitter: emitter}
}

// Submit claims one slot on the task and records a pending submission. The
// claim is a conditional decrement, so with one slot left exactly one of
// two racing submissions gets it; the other sees ErrCapacityExhausted.
// PayableAmount, task title and buyer are captured from the task at this
// instant and stay authoritative for the payout.
func (s *Service) Submit(ctx context.Context, workerEmail, workerName string, taskID uuid.UUID, detail string) (*models.Submission, error) {
	if detail == "" {
		return nil, fmt.Errorf("%w: submission detail is required", ledger.ErrMissingField)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	t, err := s.tasks.ClaimSlot(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	sub := &models.Submission{
		ID:            uuid.New(),
		TaskID:        t.ID,
		TaskTitle:     t.Title,
		PayableAmount: t.PayableAmount,
		WorkerEmail:   workerEmail,
		WorkerName:    workerName,
		BuyerEmail:    t.BuyerEmail,
		Detail:        detail,
		Status:        models.SubmissionPending,
	}
	if err := s.subs.Insert(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}

	s.emitter.Emit(ctx, sub.BuyerEmail,
		fmt.Sprintf("%s submitted work for your task %q", workerName, t.Title),
		"/dashboard/task-review")
	return sub, nil
}

// Approve moves pending → approved and credits the worker the payable
// amount captured at submit time. Terminal: a second approve (or a reject
// after approve) fails ErrInvalidTransition and moves no coins.
func (s *Service) Approve(ctx context.Context, buyerEmail, approverName string, id uuid.UUID) (*models.Submission, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	sub, err := s.authorizedFlip(ctx, tx, buyerEmail, id, models.SubmissionApproved)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.Credit(ctx, tx, sub.WorkerEmail, sub.PayableAmount); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}

	s.emitter.Emit(ctx, sub.WorkerEmail,
		fmt.Sprintf("You earned %d coins from %s for completing %q", sub.PayableAmount, approverName, sub.TaskTitle),
		"/dashboard/my-submissions")
	return sub, nil
}

// Reject moves pending → rejected and returns the slot to the task. The
// worker keeps nothing; the reopened slot may be claimed again, including
// by the same worker.
func (s *Service) Reject(ctx context.Context, buyerEmail, approverName string, id uuid.UUID) (*models.Submission, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	sub, err := s.authorizedFlip(ctx, tx, buyerEmail, id, models.SubmissionRejected)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.ReleaseSlot(ctx, tx, sub.TaskID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}

	s.emitter.Emit(ctx, sub.WorkerEmail,
		fmt.Sprintf("%s rejected your submission for %q", approverName, sub.TaskTitle),
		"/dashboard/my-submissions")
	return sub, nil
}

// authorizedFlip checks the buyer owns the submission before attempting the
// conditional pending → to transition.
func (s *Service) authorizedFlip(ctx context.Context, tx pgx.Tx, buyerEmail string, id uuid.UUID, to string) (*models.Submission, error) {
	current, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.BuyerEmail != buyerEmail {
		return nil, ledger.ErrForbidden
	}
	return s.subs.MarkStatus(ctx, tx, id, models.SubmissionPending, to)
}

// ListForWorker pages through the worker's submissions, newest first, and
// reports the total page count.
func (s *Service) ListForWorker(ctx context.Context, workerEmail string, page, limit int) ([]*models.Submission, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.subs.ListByWorker(ctx, workerEmail, page, limit)
}

func (s *Service) ListPendingForBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error) {
	return s.subs.ListPendingByBuyer(ctx, buyerEmail)
}
