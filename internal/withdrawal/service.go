// Package withdrawal converts worker coins into external payout requests.
// The coin debit happens exactly once, at request time; administrative
// approval only records that the payout went out and moves no balance.
package withdrawal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/notify"
)

// Repo is the withdrawal persistence surface. MarkApproved must apply the
// pending check atomically with the flip.
type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	MarkApproved(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByWorker(ctx context.Context, workerEmail string) ([]*models.Withdrawal, error)
	ListPending(ctx context.Context) ([]*models.Withdrawal, error)
}

// Accounts is the coin-mutation surface, provided by the account service.
type Accounts interface {
	Debit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error)
}

// AdminDirectory lists the admin emails that get notified of new requests.
type AdminDirectory interface {
	ListEmailsByRole(ctx context.Context, role string) ([]string, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool    TxBeginner
	repo    Repo
	acc     Accounts
	dir     AdminDirectory
	emitter notify.Emitter
}

func NewService(pool TxBeginner, repo Repo, acc Accounts, dir AdminDirectory, emitter notify.Emitter) *Service {
	return &Service{pool: pool, repo: repo, acc: acc, dir: dir, emitter: emitter}
}

// Request debits the worker and records a pending withdrawal in one
// transaction. The conditional debit is the sufficiency check, so a
// concurrent spend of the same coins cannot slip past it. Every admin gets
// a notification.
func (s *Service) Request(ctx context.Context, workerEmail, workerName string, coin, amount int, paymentSystem string) (*models.Withdrawal, error) {
	if coin <= 0 || amount <= 0 || paymentSystem == "" {
		return nil, fmt.Errorf("%w: withdrawal_coin, withdrawal_amount and payment_system are required", ledger.ErrMissingField)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.acc.Debit(ctx, tx, workerEmail, coin); err != nil {
		return nil, err
	}
	wd := &models.Withdrawal{
		ID:            uuid.New(),
		WorkerEmail:   workerEmail,
		WorkerName:    workerName,
		Coin:          coin,
		Amount:        amount,
		PaymentSystem: paymentSystem,
		Status:        models.WithdrawalPending,
	}
	if err := s.repo.Insert(ctx, tx, wd); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}

	admins, err := s.dir.ListEmailsByRole(ctx, models.RoleAdmin)
	if err == nil {
		msg := fmt.Sprintf("%s requested a withdrawal of %d coins via %s", workerName, coin, paymentSystem)
		for _, email := range admins {
			s.emitter.Emit(ctx, email, msg, "/dashboard/withdraw-requests")
		}
	}
	return wd, nil
}

// Approve moves pending → approved. No balance change: the debit already
// happened at request time. Terminal; a second approve fails
// ErrInvalidTransition.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	wd, err := s.repo.MarkApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, wd.WorkerEmail,
		fmt.Sprintf("Your withdrawal of %d coins via %s was approved", wd.Coin, wd.PaymentSystem),
		"/dashboard/withdrawals")
	return wd, nil
}

func (s *Service) ListForWorker(ctx context.Context, workerEmail string) ([]*models.Withdrawal, error) {
	return s.repo.ListByWorker(ctx, workerEmail)
}

func (s *Service) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	return s.repo.ListPending(ctx)
}
