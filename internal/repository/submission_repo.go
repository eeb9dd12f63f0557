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

const submissionColumns = `id, task_id, task_title, payable_amount, worker_email, worker_name, buyer_email, detail, status, created_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *SubmissionRepo) Insert(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, task_title, payable_amount, worker_email, worker_name, buyer_email, detail, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, s.ID, s.TaskID, s.TaskTitle, s.PayableAmount, s.WorkerEmail, s.WorkerName, s.BuyerEmail, s.Detail, s.Status).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert submission: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
}

// MarkStatus flips status from → to and returns the updated row. The
// source-state check rides in the UPDATE's WHERE clause, so a second
// approve (or a reject racing an approve) matches zero rows and reports
// ErrInvalidTransition without touching anything.
func (r *SubmissionRepo) MarkStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	s, err := scanSubmission(tx.QueryRow(ctx, `
		UPDATE submissions SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING `+submissionColumns,
		id, from, to))
	if errors.Is(err, ledger.ErrNotFound) {
		var exists bool
		if err2 := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err2 != nil {
			return nil, fmt.Errorf("%w: check submission: %w", ledger.ErrStoreUnavailable, err2)
		}
		if exists {
			return nil, ledger.ErrInvalidTransition
		}
		return nil, ledger.ErrNotFound
	}
	return s, err
}

// ListByWorker returns one page of the worker's submissions, newest first,
// plus the total page count for that limit.
func (r *SubmissionRepo) ListByWorker(ctx context.Context, workerEmail string, page, limit int) ([]*models.Submission, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE worker_email = $1`, workerEmail).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count submissions: %w", ledger.ErrStoreUnavailable, err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE worker_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, workerEmail, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list submissions: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	list, err := collectSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	pages := (total + limit - 1) / limit
	return list, pages, nil
}

// ListPendingByBuyer returns every submission awaiting the buyer's review.
func (r *SubmissionRepo) ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE buyer_email = $1 AND status = $2
		ORDER BY created_at DESC
	`, buyerEmail, models.SubmissionPending)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending submissions: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func collectSubmissions(rows pgx.Rows) ([]*models.Submission, error) {
	var list []*models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail, &s.WorkerName, &s.BuyerEmail, &s.Detail, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan submission: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail, &s.WorkerName, &s.BuyerEmail, &s.Detail, &s.Status, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan submission: %w", ledger.ErrStoreUnavailable, err)
	}
	return &s, nil
}
