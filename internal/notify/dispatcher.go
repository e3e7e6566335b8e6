// Package notify persists domain-event notifications, pushes them live to
// online recipients and replays pending ones on connect.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"feedpulse/internal/domain"
	"feedpulse/internal/errors"
	"feedpulse/internal/metrics"
)

// ConnLookup resolves a recipient to their live connection, or nil when
// offline.
type ConnLookup interface {
	Lookup(userID uuid.UUID) domain.Conn
}

// CreateParams carries the fields of a new notification.
type CreateParams struct {
	ToUserID   uuid.UUID
	FromUserID uuid.UUID
	Message    string
	Action     domain.NotificationAction
	PostID     *uuid.UUID
}

type notificationDoc struct {
	ID         string  `json:"id"`
	ToUserID   string  `json:"toUserId"`
	FromUserID string  `json:"fromUserId"`
	Message    string  `json:"message"`
	Action     string  `json:"action"`
	PostID     *string `json:"postId,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Read       bool    `json:"read"`
}

// Dispatcher owns the notification lifecycle. Delivery is at-least-once:
// a notification is marked read only after a successful replay push, so a
// crash between push and mark means the client sees it again on the next
// connect.
type Dispatcher struct {
	notifications domain.NotificationRepository
	conns         ConnLookup
	clock         clockwork.Clock
}

func NewDispatcher(notifications domain.NotificationRepository, conns ConnLookup, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{notifications: notifications, conns: conns, clock: clock}
}

// Create validates and persists a notification, then makes a best-effort
// live push to the recipient. The live push never marks the notification
// read; only replay-on-connect does that.
func (d *Dispatcher) Create(ctx context.Context, params CreateParams) (*domain.Notification, error) {
	if params.ToUserID == uuid.Nil || params.FromUserID == uuid.Nil {
		return nil, errors.ValidationError("recipient and sender are required")
	}
	if strings.TrimSpace(params.Message) == "" {
		return nil, errors.ValidationError("notification message must not be empty")
	}
	if !params.Action.Valid() {
		return nil, errors.ValidationError("unknown notification action").
			WithContext("action", string(params.Action))
	}

	persisted, err := d.notifications.Insert(ctx, domain.Notification{
		ToUserID:   params.ToUserID,
		FromUserID: params.FromUserID,
		Message:    params.Message,
		Action:     params.Action,
		PostID:     params.PostID,
		CreatedAt:  d.clock.Now().UTC(),
	})
	if err != nil {
		return nil, errors.InternalError("failed to store notification", err)
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(string(params.Action)).Inc()

	d.pushLive(persisted)
	return persisted, nil
}

func (d *Dispatcher) pushLive(n *domain.Notification) {
	conn := d.conns.Lookup(n.ToUserID)
	if conn == nil || !conn.IsOpen() {
		metrics.NotificationsDeliveredTotal.WithLabelValues("offline").Inc()
		return
	}

	frame, err := json.Marshal(encodeNotification(*n))
	if err != nil {
		metrics.NotificationsDeliveredTotal.WithLabelValues("failed").Inc()
		return
	}
	if err := conn.Send(frame); err != nil {
		metrics.NotificationsDeliveredTotal.WithLabelValues("failed").Inc()
		slog.Debug("Live notification delivery failed", "to_user_id", n.ToUserID.String(), "error", err)
		return
	}
	metrics.NotificationsDeliveredTotal.WithLabelValues("ok").Inc()
}

// ReplayPending pushes all unread notifications to a freshly authenticated
// connection, oldest first, then marks the successfully pushed ones read in
// one batch. A failed batch leaves everything unread for the next connect.
func (d *Dispatcher) ReplayPending(ctx context.Context, userID uuid.UUID, conn domain.Conn) {
	pending, err := d.notifications.ListUnread(ctx, userID)
	if err != nil {
		metrics.NotificationReplayBatchesTotal.WithLabelValues("error").Inc()
		slog.Error("Notification replay aborted, load failed", "user_id", userID.String(), "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	delivered := make([]uuid.UUID, 0, len(pending))
	for _, n := range pending {
		frame, err := json.Marshal(encodeNotification(n))
		if err != nil {
			continue
		}
		if !conn.IsOpen() {
			break
		}
		if err := conn.Send(frame); err != nil {
			slog.Debug("Replay push failed, remaining notifications stay unread",
				"user_id", userID.String(), "error", err)
			break
		}
		delivered = append(delivered, n.ID)
	}
	metrics.NotificationsReplayedTotal.Add(float64(len(delivered)))

	if len(delivered) == 0 {
		return
	}
	if err := d.notifications.MarkRead(ctx, delivered); err != nil {
		// At-least-once: the client will see these again on its next connect.
		metrics.NotificationReplayBatchesTotal.WithLabelValues("error").Inc()
		slog.Error("Failed to mark replayed notifications read",
			"user_id", userID.String(), "count", len(delivered), "error", err)
		return
	}
	metrics.NotificationReplayBatchesTotal.WithLabelValues("ok").Inc()
	slog.Info("Replayed pending notifications", "user_id", userID.String(), "count", len(delivered))
}

// List returns the recipient's full notification history, newest first.
func (d *Dispatcher) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	if userID == uuid.Nil {
		return nil, errors.ValidationError("recipient is required")
	}
	history, err := d.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, errors.InternalError("failed to load notifications", err)
	}
	return history, nil
}

func encodeNotification(n domain.Notification) notificationDoc {
	doc := notificationDoc{
		ID:         n.ID.String(),
		ToUserID:   n.ToUserID.String(),
		FromUserID: n.FromUserID.String(),
		Message:    n.Message,
		Action:     string(n.Action),
		Timestamp:  n.CreatedAt.Format(time.RFC3339),
		Read:       n.Read,
	}
	if n.PostID != nil {
		postID := n.PostID.String()
		doc.PostID = &postID
	}
	return doc
}
