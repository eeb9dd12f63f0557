package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Insert appends one payment record. transaction_id is unique, so a
// replayed gateway confirmation surfaces as ErrAlreadyExists and the
// caller's transaction (including the coin credit) rolls back.
func (r *PaymentRepo) Insert(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (id, email, coins, amount, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.Email, p.Coins, p.Amount, p.TransactionID).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("%w: insert payment: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PaymentRepo) ListByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, coins, amount, transaction_id, created_at
		FROM payments WHERE email = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Email, &p.Coins, &p.Amount, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan payment: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
