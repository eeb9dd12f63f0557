// Package payment turns confirmed external purchases into coin credits and
// brokers payment-intent creation with the external gateway. Payment rows
// are append-only; the unique transaction id makes confirmation replays
// harmless.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/notify"
)

// Gateway is the outbound payment-provider surface. CreateIntent returns
// the provider's opaque client handle for the frontend to complete payment.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int, reference string) (string, error)
}

// Repo is the payment persistence surface.
type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	ListByEmail(ctx context.Context, email string) ([]*models.Payment, error)
}

// Accounts is the coin-mutation surface, provided by the account service.
type Accounts interface {
	Credit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool    TxBeginner
	repo    Repo
	acc     Accounts
	gateway Gateway
	emitter notify.Emitter
}

func NewService(pool TxBeginner, repo Repo, acc Accounts, gateway Gateway, emitter notify.Emitter) *Service {
	return &Service{pool: pool, repo: repo, acc: acc, gateway: gateway, emitter: emitter}
}

// CreateIntent asks the gateway to open a payment for amountCents and
// returns its opaque client handle.
func (s *Service) CreateIntent(ctx context.Context, email string, amountCents int) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ledger.ErrMissingField)
	}
	return s.gateway.CreateIntent(ctx, amountCents, email)
}

// Confirm records the gateway's confirmation and credits the coins, as one
// transaction. A replayed confirmation hits the unique transaction id,
// rolls the credit back and reports ErrAlreadyExists, so the user is never
// credited twice.
func (s *Service) Confirm(ctx context.Context, email string, coins, amount int, transactionID string) (*models.Payment, error) {
	if email == "" || coins <= 0 || transactionID == "" {
		return nil, fmt.Errorf("%w: email, coins and transaction_id are required", ledger.ErrMissingField)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	p := &models.Payment{
		ID:            uuid.New(),
		Email:         email,
		Coins:         coins,
		Amount:        amount,
		TransactionID: transactionID,
	}
	if err := s.repo.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	if _, err := s.acc.Credit(ctx, tx, email, coins); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ledger.ErrStoreUnavailable, err)
	}

	s.emitter.Emit(ctx, email,
		fmt.Sprintf("%d coins were added to your balance", coins),
		"/dashboard/payments")
	return p, nil
}

func (s *Service) ListForUser(ctx context.Context, email string) ([]*models.Payment, error) {
	return s.repo.ListByEmail(ctx, email)
}
