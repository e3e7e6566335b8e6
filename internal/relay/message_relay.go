package relay

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

type outboundMessage struct {
	Type       string `json:"type"`
	FromUserID string `json:"fromUserId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// MessageRelay persists direct messages and pushes them to the recipient's
// live connection. Persistence and delivery are independent: an offline
// recipient still gets the message stored, and a storage failure does not
// block a best-effort live push.
type MessageRelay struct {
	messages domain.MessageRepository
	conns    ConnLookup
	clock    clockwork.Clock
}

func NewMessageRelay(messages domain.MessageRepository, conns ConnLookup, clock clockwork.Clock) *MessageRelay {
	return &MessageRelay{messages: messages, conns: conns, clock: clock}
}

// Send validates, persists and delivers one direct message. The returned
// error reflects validation or persistence only; delivery failures are
// logged, never surfaced to the sender.
func (r *MessageRelay) Send(ctx context.Context, fromUserID, toUserID uuid.UUID, body string) error {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil {
		return errors.ValidationError("sender and recipient are required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.ValidationError("message body must not be empty")
	}

	createdAt := r.clock.Now().UTC()

	persisted, persistErr := r.messages.Insert(ctx, fromUserID, toUserID, body, createdAt)
	if persistErr != nil {
		metrics.MessagesPersistedTotal.WithLabelValues("error").Inc()
		slog.Error("Message persistence failed, attempting live delivery anyway",
			"error", persistErr,
			"from_user_id", fromUserID.String(),
			"to_user_id", toUserID.String())
	} else {
		metrics.MessagesPersistedTotal.WithLabelValues("ok").Inc()
		createdAt = persisted.CreatedAt
	}

	r.deliver(fromUserID, toUserID, body, createdAt)

	if persistErr != nil {
		return errors.InternalError("failed to store message", persistErr)
	}
	return nil
}

func (r *MessageRelay) deliver(fromUserID, toUserID uuid.UUID, body string, createdAt time.Time) {
	conn := r.conns.Lookup(toUserID)
	if conn == nil {
		metrics.MessagesDeliveredTotal.WithLabelValues("offline").Inc()
		return
	}

	frame, err := json.Marshal(outboundMessage{
		Type:       "message",
		FromUserID: fromUserID.String(),
		Message:    body,
		Timestamp:  createdAt.Format(time.RFC3339),
	})
	if err != nil {
		metrics.MessagesDeliveredTotal.WithLabelValues("failed").Inc()
		return
	}

	// Presence can change between dispatch and this point, so openness is
	// decided here, at the final send.
	if !conn.IsOpen() {
		metrics.MessagesDeliveredTotal.WithLabelValues("offline").Inc()
		return
	}
	if err := conn.Send(frame); err != nil {
		metrics.MessagesDeliveredTotal.WithLabelValues("failed").Inc()
		slog.Debug("Live message delivery failed", "to_user_id", toUserID.String(), "error", err)
		return
	}
	metrics.MessagesDeliveredTotal.WithLabelValues("ok").Inc()
}

// Fetch returns the full conversation between two users, both directions,
// oldest first.
func (r *MessageRelay) Fetch(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return nil, errors.ValidationError("both conversation participants are required")
	}
	history, err := r.messages.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, errors.InternalError("failed to load conversation", err)
	}
	return history, nil
}
