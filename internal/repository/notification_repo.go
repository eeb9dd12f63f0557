package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, to_email, message, action_route, read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, n.ID, n.ToEmail, n.Message, n.ActionRoute, n.Read).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert notification: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, toEmail string) ([]*models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, to_email, message, action_route, read, created_at
		FROM notifications WHERE to_email = $1 ORDER BY created_at DESC
	`, toEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %w", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ToEmail, &n.Message, &n.ActionRoute, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan notification: %w", ledger.ErrStoreUnavailable, err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, toEmail string) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE to_email = $1`, toEmail)
	if err != nil {
		return fmt.Errorf("%w: mark notifications read: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *NotificationRepo) DeleteAll(ctx context.Context, toEmail string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE to_email = $1`, toEmail)
	if err != nil {
		return fmt.Errorf("%w: clear notifications: %w", ledger.ErrStoreUnavailable, err)
	}
	return nil
}
