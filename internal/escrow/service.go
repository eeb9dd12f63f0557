// Package escrow owns task creation and closure, and with them the coins
// held against future worker payouts. The buyer debit and the task insert
// always travel in one transaction; the refund at closure is computed from
// the row-locked capacity so no slot can move underneath it.
package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

// TaskRepo is the task persistence surface the engine needs.
type TaskRepo interface {
	Insert(ctx context.Context, tx pgx.Tx, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, title, detail, submissionInfo string) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ListOpen(ctx context.Context) ([]*models.Task, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*models.Task, error)
}

// Accounts is the coin-mutation surface, provided by the account service.
type Accounts interface {
	Credit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error)
	Debit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool     TxBeginner
	tasks    TaskRepo
	accounts Accounts
}

func NewService(pool TxBeginner, tasks TaskRepo, accounts Accounts) *Service {
	return &Service{pool: pool, tasks: tasks, accounts: accounts}
}

type CreateInput struct {
	Title           string
	Detail          string
	RequiredWorkers int
	PayableAmount   int
	CompletionDate  time.Time
	SubmissionInfo  string
	ImageURL        string
}

// Create escrows requiredWorkers × payableAmount out of the buyer's balance
// and inserts the task, as one transaction. If the insert fails the debit
// rolls back with it, so the two can never diverge.
func (s *Service) Create(ctx context.Context, buyerEmail string, in CreateInput) (*models.Task, error) {
	if in.Title == "" || in.RequiredWorkers <= 0 || in.PayableAmount <= 0 {
		return nil, fmt.Errorf("%w: title, required_workers and payable_amount are required", ledger.ErrMissingField)
	}
	total := in.RequiredWorkers * in.PayableAmount

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.accounts.Debit(ctx, tx, buyerEmail, total); err != nil {
		return nil, err
	}

	t := &models.Task{
		ID:              uuid.New(),
		Title:           in.Title,
		Detail:          in.Detail,
		RequiredWorkers: in.RequiredWorkers,
		PayableAmount:   in.PayableAmount,
		TotalPayable:    total,
		CompletionDate:  in.CompletionDate,
		SubmissionInfo:  in.SubmissionInfo,
		ImageURL:        in.ImageURL,
		BuyerEmail:      buyerEmail,
	}
	if err := s.tasks.Insert(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}
	return t, nil
}

// Update rewrites the task's text fields. Money fields are immutable after
// creation; only the owning buyer may edit.
func (s *Service) Update(ctx context.Context, callerEmail string, taskID uuid.UUID, title, detail, submissionInfo string) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if t.BuyerEmail != callerEmail {
		return ledger.ErrForbidden
	}
	return s.tasks.UpdateDetails(ctx, taskID, title, detail, submissionInfo)
}

// Close refunds the unspent escrow (remaining capacity × payable amount)
// to the buyer and removes the task. The task row is locked for the whole
// transaction, so a submission claiming the last slot either lands before
// the lock (shrinking the refund) or fails NotFound after the delete,
// never in between. Credit precedes delete; a failure after the credit
// rolls the whole thing back.
func (s *Service) Close(ctx context.Context, callerEmail string, isAdmin bool, taskID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	t, err := s.tasks.GetForUpdate(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if !isAdmin && t.BuyerEmail != callerEmail {
		return ledger.ErrForbidden
	}
	if refund := t.UnspentEscrow(); refund > 0 {
		if _, err := s.accounts.Credit(ctx, tx, t.BuyerEmail, refund); err != nil {
			return err
		}
	}
	if err := s.tasks.Delete(ctx, tx, taskID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	return s.tasks.GetByID(ctx, taskID)
}

// ListOpen returns tasks still accepting submissions, earliest deadline
// first. The query is re-runnable with stable ordering, so callers can
// restart iteration at any time.
func (s *Service) ListOpen(ctx context.Context) ([]*models.Task, error) {
	return s.tasks.ListOpen(ctx)
}

func (s *Service) ListByBuyer(ctx context.Context, buyerEmail string) ([]*models.Task, error) {
	return s.tasks.ListByBuyer(ctx, buyerEmail)
}
