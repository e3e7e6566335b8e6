package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"feedpulse/internal/domain"
	"feedpulse/internal/metrics"
)

// ConnRegistry is the slice of the registry the session drives.
type ConnRegistry interface {
	Register(userID uuid.UUID, conn domain.Conn) domain.Conn
	Unregister(conn domain.Conn) (uuid.UUID, bool)
}

// PresenceNotifier pushes the online-user list after membership changes.
type PresenceNotifier interface {
	Broadcast(ctx context.Context)
}

// MessageSender persists and delivers direct chat messages.
type MessageSender interface {
	Send(ctx context.Context, fromUserID, toUserID uuid.UUID, body string) error
}

// TypingForwarder relays ephemeral typing signals.
type TypingForwarder interface {
	RelayTyping(fromUserID, toUserID uuid.UUID, payload map[string]json.RawMessage)
}

// NotificationReplayer replays pending notifications after authentication.
type NotificationReplayer interface {
	ReplayPending(ctx context.Context, userID uuid.UUID, conn domain.Conn)
}

// Session is the per-connection inbound dispatcher. It owns the read loop
// and handles this connection's frames strictly in arrival order; no two
// frames of one connection are ever processed concurrently.
type Session struct {
	connection    *websocket.Conn
	writer        *clientWriter
	registry      ConnRegistry
	presence      PresenceNotifier
	messages      MessageSender
	typing        TypingForwarder
	notifications NotificationReplayer

	userID        uuid.UUID
	authenticated bool
}

func NewSession(
	connection *websocket.Conn,
	clock clockwork.Clock,
	reg ConnRegistry,
	presence PresenceNotifier,
	messages MessageSender,
	typing TypingForwarder,
	notifications NotificationReplayer,
) *Session {
	return &Session{
		connection:    connection,
		writer:        newClientWriter(connection, clock),
		registry:      reg,
		presence:      presence,
		messages:      messages,
		typing:        typing,
		notifications: notifications,
	}
}

// Run reads frames until the transport closes, then cleans up the
// registration. It blocks; callers run it on the connection's goroutine.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown(ctx)

	for {
		_, data, err := s.connection.ReadMessage()
		if err != nil {
			return
		}
		s.handleFrame(ctx, data)
	}
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		// A bad frame is dropped; the connection is never closed for it.
		metrics.FramesDroppedTotal.WithLabelValues("malformed").Inc()
		slog.Info("Dropping malformed frame", "error", err)
		return
	}

	if !s.authenticated {
		auth, ok := frame.(AuthFrame)
		if !ok {
			metrics.FramesDroppedTotal.WithLabelValues("preauth").Inc()
			slog.Info("Dropping frame received before authentication")
			return
		}
		s.authenticate(ctx, auth.UserID)
		return
	}

	switch f := frame.(type) {
	case AuthFrame:
		// Already authenticated; the state machine has no second transition.
		slog.Debug("Ignoring repeated auth frame", "user_id", s.userID.String())
	case ChatMessageFrame:
		if err := s.messages.Send(ctx, f.FromUserID, f.ToUserID, f.Body); err != nil {
			slog.Info("Chat message rejected", "error", err, "user_id", s.userID.String())
		}
	case TypingFrame:
		s.typing.RelayTyping(s.userID, f.ToUserID, f.Payload)
	case UnknownFrame:
		metrics.FramesDroppedTotal.WithLabelValues("unknown").Inc()
		slog.Info("Ignoring unknown frame kind", "frame_type", f.Type)
	}
}

func (s *Session) authenticate(ctx context.Context, userID uuid.UUID) {
	s.userID = userID
	s.authenticated = true

	// The new registration supersedes any previous connection for this
	// user; the superseded socket is force-closed rather than left to leak.
	if previous := s.registry.Register(userID, s.writer); previous != nil {
		previous.Close("superseded by new connection")
	}

	slog.Info("User authenticated", "user_id", userID.String())
	s.presence.Broadcast(ctx)
	s.notifications.ReplayPending(ctx, userID, s.writer)
}

func (s *Session) teardown(ctx context.Context) {
	s.writer.Close("")

	if !s.authenticated {
		return
	}

	// Only a current registration triggers a presence change; a stale
	// disconnect after supersession must leave the new mapping alone.
	if userID, removed := s.registry.Unregister(s.writer); removed {
		slog.Info("User disconnected", "user_id", userID.String())
		s.presence.Broadcast(ctx)
	}
}
