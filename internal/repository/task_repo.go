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

const taskColumns = `id, title, detail, required_workers, payable_amount, total_payable, completion_date, submission_info, image_url, buyer_email, created_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Insert writes the task inside the caller's transaction so the escrow
// debit and the task row commit or roll back together.
func (r *TaskRepo) Insert(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO tasks (id, title, detail, required_workers, payable_amount, total_payable, completion_date, submission_info, image_url, buyer_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.Title, t.Detail, t.RequiredWorkers, t.PayableAmount, t.TotalPayable, t.CompletionDate, t.SubmissionInfo, t.ImageURL, t.BuyerEmail).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert task: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// GetForUpdate locks the task row so its capacity cannot move between the
// refund computation and the delete. Call within a transaction.
func (r *TaskRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

// UpdateDetails rewrites the mutable text fields only. Money fields and
// capacity are never touched here.
func (r *TaskRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title, detail, submissionInfo string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, detail = $3, submission_info = $4 WHERE id = $1
	`, id, title, detail, submissionInfo)
	if err != nil {
		return fmt.Errorf("%w: update task: %w", ledger.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete task: %w", ledger.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ClaimSlot takes one unit of capacity and returns the task as it was at
// that instant. The decrement and the capacity check are a single
// conditional UPDATE: with required_workers = 1, two concurrent claims
// serialize on the row and only one matches.
func (r *TaskRepo) ClaimSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = required_workers - 1
		WHERE id = $1 AND required_workers > 0
		RETURNING `+taskColumns,
		id))
	if errors.Is(err, ledger.ErrNotFound) {
		var exists bool
		if err2 := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err2 != nil {
			return nil, fmt.Errorf("%w: check task: %w", ledger.ErrStoreUnavailable, err2)
		}
		if exists {
			return nil, ledger.ErrCapacityExhausted
		}
		return nil, ledger.ErrNotFound
	}
	return t, err
}

// ReleaseSlot gives one unit of capacity back after a rejection. A missing
// task is not an error: the buyer may have closed it while the submission
// was pending, and the rejection still stands.
func (r *TaskRepo) ReleaseSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET required_workers = required_workers + 1 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("%w: release slot: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

// ListOpen returns tasks that still accept submissions, earliest deadline
// first, creation order breaking ties.
func (r *TaskRepo) ListOpen(ctx context.Context) ([]*models.Task, error) {
	return r.list(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE required_workers > 0
		ORDER BY completion_date ASC, created_at ASC
	`)
}

func (r *TaskRepo) ListByBuyer(ctx context.Context, buyerEmail string) ([]*models.Task, error) {
	return r.list(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE buyer_email = $1
		ORDER BY completion_date DESC
	`, buyerEmail)
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Detail, &t.RequiredWorkers, &t.PayableAmount, &t.TotalPayable, &t.CompletionDate, &t.SubmissionInfo, &t.ImageURL, &t.BuyerEmail, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan task: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Detail, &t.RequiredWorkers, &t.PayableAmount, &t.TotalPayable, &t.CompletionDate, &t.SubmissionInfo, &t.ImageURL, &t.BuyerEmail, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan task: %w", ledger.ErrStoreUnavailable, err)
	}
	return &t, nil
}
