package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationAction is the closed set of domain events that produce
// notifications.
type NotificationAction string

const (
	ActionLike    NotificationAction = "like"
	ActionComment NotificationAction = "comment"
	ActionFollow  NotificationAction = "follow"
)

// Valid reports whether the action is one of the known kinds.
func (a NotificationAction) Valid() bool {
	switch a {
	case ActionLike, ActionComment, ActionFollow:
		return true
	}
	return false
}

// Notification is a persisted domain-event notification. Read flips
// false -> true exactly once, via replay-on-connect; it never reverts and
// records are never deleted by this subsystem.
type Notification struct {
	ID         uuid.UUID          `db:"id"`
	ToUserID   uuid.UUID          `db:"to_user_id"`
	FromUserID uuid.UUID          `db:"from_user_id"`
	Message    string             `db:"message"`
	Action     NotificationAction `db:"action"`
	PostID     *uuid.UUID         `db:"post_id"`
	CreatedAt  time.Time          `db:"created_at"`
	Read       bool               `db:"read"`
}

// NotificationRepository abstracts notification persistence.
type NotificationRepository interface {
	Insert(ctx context.Context, n Notification) (*Notification, error)
	// ListUnread returns unread notifications for the recipient, ordered by
	// creation time ascending (replay order).
	ListUnread(ctx context.Context, toUserID uuid.UUID) ([]Notification, error)
	// MarkRead flips read=true for exactly the given ids, in one batch.
	MarkRead(ctx context.Context, ids []uuid.UUID) error
	// ListByRecipient returns all notifications for the recipient, newest
	// first (REST history view).
	ListByRecipient(ctx context.Context, toUserID uuid.UUID) ([]Notification, error)
}
