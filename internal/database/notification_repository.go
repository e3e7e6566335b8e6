package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedpulse/internal/domain"
)

const notificationColumns = `id, to_user_id, from_user_id, message, action, post_id, created_at, read`

// NotificationRepo implements domain.NotificationRepository backed by
// PostgreSQL. Records are never deleted here; read only ever flips
// false -> true, in one batch per replay.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Insert(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	var out domain.Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (to_user_id, from_user_id, message, action, post_id, created_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING `+notificationColumns+`
	`, n.ToUserID, n.FromUserID, n.Message, n.Action, n.PostID, n.CreatedAt).Scan(
		&out.ID, &out.ToUserID, &out.FromUserID, &out.Message, &out.Action,
		&out.PostID, &out.CreatedAt, &out.Read,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	return &out, nil
}

func (r *NotificationRepo) ListUnread(ctx context.Context, toUserID uuid.UUID) ([]domain.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE to_user_id = $1 AND NOT read
		ORDER BY created_at ASC, id ASC
	`, toUserID)
}

func (r *NotificationRepo) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, toUserID uuid.UUID) ([]domain.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE to_user_id = $1
		ORDER BY created_at DESC, id DESC
	`, toUserID)
}

func (r *NotificationRepo) list(ctx context.Context, query string, toUserID uuid.UUID) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, query, toUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ToUserID, &n.FromUserID, &n.Message, &n.Action,
			&n.PostID, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return notifications, nil
}
