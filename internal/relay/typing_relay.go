package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"feedpulse/internal/metrics"
)

// TypingRelay forwards typing signals between live connections. Nothing is
// persisted: a signal for an offline recipient is dropped on the floor.
type TypingRelay struct {
	conns ConnLookup
}

func NewTypingRelay(conns ConnLookup) *TypingRelay {
	return &TypingRelay{conns: conns}
}

// RelayTyping pushes a typing frame to the recipient if they are online. The
// payload fields are forwarded untouched; the sender identity always comes
// from the authenticated session, never from the inbound frame.
func (r *TypingRelay) RelayTyping(fromUserID, toUserID uuid.UUID, payload map[string]json.RawMessage) {
	conn := r.conns.Lookup(toUserID)
	if conn == nil || !conn.IsOpen() {
		metrics.TypingRelayedTotal.WithLabelValues("offline").Inc()
		return
	}

	out := make(map[string]json.RawMessage, len(payload)+2)
	for key, value := range payload {
		out[key] = value
	}
	out["type"] = json.RawMessage(`"typing"`)
	fromJSON, err := json.Marshal(fromUserID.String())
	if err != nil {
		metrics.TypingRelayedTotal.WithLabelValues("failed").Inc()
		return
	}
	out["fromUserId"] = fromJSON

	frame, err := json.Marshal(out)
	if err != nil {
		metrics.TypingRelayedTotal.WithLabelValues("failed").Inc()
		return
	}

	if err := conn.Send(frame); err != nil {
		metrics.TypingRelayedTotal.WithLabelValues("failed").Inc()
		slog.Debug("Typing relay send failed", "to_user_id", toUserID.String(), "error", err)
		return
	}
	metrics.TypingRelayedTotal.WithLabelValues("ok").Inc()
}
