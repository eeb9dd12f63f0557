package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

const withdrawalColumns = `id, worker_email, worker_name, coin, amount, payment_system, status, created_at`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func (r *WithdrawalRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *WithdrawalRepo) Insert(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, worker_email, worker_name, coin, amount, payment_system, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, w.ID, w.WorkerEmail, w.WorkerName, w.Coin, w.Amount, w.PaymentSystem, w.Status).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert withdrawal: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

// MarkApproved moves pending → approved. Approval changes no balance: the
// coins left the worker when the request was made.
func (r *WithdrawalRepo) MarkApproved(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(r.pool.QueryRow(ctx, `
		UPDATE withdrawals SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING `+withdrawalColumns,
		id, models.WithdrawalPending, models.WithdrawalApproved))
	if errors.Is(err, ledger.ErrNotFound) {
		var exists bool
		if err2 := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, id).Scan(&exists); err2 != nil {
			return nil, fmt.Errorf("%w: check withdrawal: %w", ledger.ErrStoreUnavailable, err2)
		}
		if exists {
			return nil, ledger.ErrInvalidTransition
		}
		return nil, ledger.ErrNotFound
	}
	return w, err
}

func (r *WithdrawalRepo) ListByWorker(ctx context.Context, workerEmail string) ([]*models.Withdrawal, error) {
	return r.list(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE worker_email = $1 ORDER BY created_at DESC
	`, workerEmail)
}

func (r *WithdrawalRepo) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	return r.list(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE status = $1 ORDER BY created_at ASC
	`, models.WithdrawalPending)
}

func (r *WithdrawalRepo) list(ctx context.Context, query string, args ...any) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list withdrawals: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var list []*models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.WorkerEmail, &w.WorkerName, &w.Coin, &w.Amount, &w.PaymentSystem, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan withdrawal: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.WorkerEmail, &w.WorkerName, &w.Coin, &w.Amount, &w.PaymentSystem, &w.Status, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan withdrawal: %w", ledger.ErrStoreUnavailable, err)
	}
	return &w, nil
}
