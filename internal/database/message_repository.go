package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedpulse/internal/domain"
)

const messageColumns = `id, from_user_id, to_user_id, body, created_at`

// MessageRepo implements domain.MessageRepository backed by PostgreSQL.
// Messages are append-only; there is no update or delete path.
type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Insert(ctx context.Context, fromUserID, toUserID uuid.UUID, body string, createdAt time.Time) (*domain.Message, error) {
	var msg domain.Message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (from_user_id, to_user_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+messageColumns+`
	`, fromUserID, toUserID, body, createdAt).Scan(
		&msg.ID, &msg.FromUserID, &msg.ToUserID, &msg.Body, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepo) ListConversation(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
		ORDER BY created_at ASC, id ASC
	`, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.FromUserID, &msg.ToUserID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}
