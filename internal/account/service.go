// Package account owns user coin balances. Nothing else in the codebase
// issues a coin mutation; every other component goes through Credit/Debit
// inside its own transaction.
package account

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
)

// BalanceRepo is the minimal user-balance surface the service needs. The
// conditional increment must be atomic: apply delta only where the
// resulting balance stays non-negative, in one statement.
type BalanceRepo interface {
	IncrementCoin(ctx context.Context, tx pgx.Tx, email string, delta int) (newBalance int, err error)
	GetCoin(ctx context.Context, email string) (int, error)
}

type Service struct {
	repo BalanceRepo
}

func NewService(repo BalanceRepo) *Service {
	return &Service{repo: repo}
}

// Credit adds amount coins to the user. Call within the transaction that
// carries the state change funding the credit.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error) {
	if amount < 0 {
		return 0, ledger.ErrMissingField
	}
	return s.repo.IncrementCoin(ctx, tx, email, amount)
}

// Debit removes amount coins, failing with ErrInsufficientFunds when the
// balance cannot cover it. The sufficiency check and the write are one
// atomic operation in the repo, so a stale prior read can never overdraw.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, email string, amount int) (int, error) {
	if amount < 0 {
		return 0, ledger.ErrMissingField
	}
	return s.repo.IncrementCoin(ctx, tx, email, -amount)
}

// Balance is a pure read of the user's current coin count.
func (s *Service) Balance(ctx context.Context, email string) (int, error) {
	return s.repo.GetCoin(ctx, email)
}
