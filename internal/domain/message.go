package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is a direct chat message. Append-only: never mutated after insert.
type Message struct {
	ID         uuid.UUID `db:"id"`
	FromUserID uuid.UUID `db:"from_user_id"`
	ToUserID   uuid.UUID `db:"to_user_id"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
}

// MessageRepository abstracts message persistence.
type MessageRepository interface {
	Insert(ctx context.Context, fromUserID, toUserID uuid.UUID, body string, createdAt time.Time) (*Message, error)
	// ListConversation returns all messages exchanged between the two users
	// in either direction, ordered by creation time ascending.
	ListConversation(ctx context.Context, userA, userB uuid.UUID) ([]Message, error)
}
