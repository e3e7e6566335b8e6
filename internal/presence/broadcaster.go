// Package presence pushes the full online-user list to every connected
// client whenever registry membership changes.
package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"feedpulse/internal/domain"
	"feedpulse/internal/metrics"
	"feedpulse/internal/registry"
)

// SnapshotSource is the registry slice the broadcaster needs.
type SnapshotSource interface {
	Snapshot() []registry.Entry
}

type onlineUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type onlineUsersFrame struct {
	Type string       `json:"type"`
	Data []onlineUser `json:"data"`
}

// Broadcaster assembles the current online-user list and fans it out. Every
// recipient gets the complete list, not a delta, so clients never need to
// reconcile incremental updates.
type Broadcaster struct {
	source SnapshotSource
	users  domain.UserRepository
}

func NewBroadcaster(source SnapshotSource, users domain.UserRepository) *Broadcaster {
	return &Broadcaster{source: source, users: users}
}

// Broadcast sends the online-user list to all currently open connections.
// A profile lookup failure aborts the whole cycle; the next membership
// change triggers a fresh broadcast anyway.
func (b *Broadcaster) Broadcast(ctx context.Context) {
	entries := b.source.Snapshot()

	userIDs := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		userIDs = append(userIDs, entry.UserID)
	}

	users, err := b.users.ListByIDs(ctx, userIDs)
	if err != nil {
		metrics.PresenceBroadcastsTotal.WithLabelValues("error").Inc()
		slog.Error("Aborting presence broadcast, user lookup failed", "error", err)
		return
	}

	frame, err := json.Marshal(buildFrame(users))
	if err != nil {
		metrics.PresenceBroadcastsTotal.WithLabelValues("error").Inc()
		slog.Error("Aborting presence broadcast, encoding failed", "error", err)
		return
	}

	for _, entry := range entries {
		if !entry.Conn.IsOpen() {
			metrics.PresenceSkippedConnsTotal.Inc()
			continue
		}
		if err := entry.Conn.Send(frame); err != nil {
			metrics.PresenceSkippedConnsTotal.Inc()
			slog.Debug("Skipping presence recipient", "user_id", entry.UserID.String(), "error", err)
		}
	}

	metrics.PresenceBroadcastsTotal.WithLabelValues("ok").Inc()
	slog.Debug("Presence broadcast complete", "online", len(users))
}

func buildFrame(users []domain.User) onlineUsersFrame {
	data := make([]onlineUser, 0, len(users))
	for _, user := range users {
		data = append(data, onlineUser{ID: user.ID.String(), Username: user.Username})
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Username < data[j].Username })
	return onlineUsersFrame{Type: "onlineUsers", Data: data}
}
