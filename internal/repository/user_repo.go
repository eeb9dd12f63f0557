package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, photo_url, role, coin, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.PhotoURL, u.Role, u.Coin, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("%w: insert user: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, name, email, photo_url, role, coin, password_hash, created_at
		FROM users WHERE email = $1
	`, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, name, email, photo_url, role, coin, password_hash, created_at
		FROM users WHERE id = $1
	`, id))
}

func (r *UserRepo) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhotoURL, &u.Role, &u.Coin, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select user: %w", ledger.ErrStoreUnavailable, err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, photo_url, role, coin, password_hash, created_at
		FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PhotoURL, &u.Role, &u.Coin, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan user: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

// ListEmailsByRole returns the emails of every user with the given role.
// Used to fan out notifications to admins.
func (r *UserRepo) ListEmailsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, fmt.Errorf("%w: list emails: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("%w: scan email: %w", ledger.ErrStoreUnavailable, err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (r *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("%w: update role: %w", ledger.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete user: %w", ledger.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// IncrementCoin atomically adds delta (which may be negative) to one user's
// balance, refusing any change that would take it below zero. The guard and
// the write are one statement, so two concurrent debits can never both pass
// a stale sufficiency check. Call within a transaction when the increment
// must commit together with another write.
func (r *UserRepo) IncrementCoin(ctx context.Context, tx pgx.Tx, email string, delta int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET coin = coin + $1
		WHERE email = $2 AND coin + $1 >= 0
		RETURNING coin
	`, delta, email).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the user is missing or the debit would overdraw.
		var exists bool
		if err2 := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err2 != nil {
			return 0, fmt.Errorf("%w: check user: %w", ledger.ErrStoreUnavailable, err2)
		}
		if !exists {
			return 0, ledger.ErrNotFound
		}
		return 0, ledger.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("%w: increment coin: %w", ledger.ErrStoreUnavailable, err)
	}
	return newBalance, nil
}

// GetCoin reads a user's current balance.
func (r *UserRepo) GetCoin(ctx context.Context, email string) (int, error) {
	var coin int
	err := r.pool.QueryRow(ctx, `SELECT coin FROM users WHERE email = $1`, email).Scan(&coin)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ledger.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: select coin: %w", ledger.ErrStoreUnavailable, err)
	}
	return coin, nil
}
