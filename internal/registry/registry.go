package registry

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"feedpulse/internal/domain"
	"feedpulse/internal/metrics"
)

// Entry is one (userID, connection) mapping at snapshot time.
type Entry struct {
	UserID      uuid.UUID
	Conn        domain.Conn
	ConnectedAt time.Time
}

// --- Command types ---

type registryCmd interface{ isRegistryCmd() }

type baseRegistryCmd struct{}

func (baseRegistryCmd) isRegistryCmd() {}

type registerCmd struct {
	baseRegistryCmd
	userID       uuid.UUID
	conn         domain.Conn
	replyChannel chan domain.Conn
}

type unregisterResult struct {
	userID  uuid.UUID
	removed bool
}

type unregisterCmd struct {
	baseRegistryCmd
	conn         domain.Conn
	replyChannel chan unregisterResult
}

type lookupCmd struct {
	baseRegistryCmd
	userID       uuid.UUID
	replyChannel chan domain.Conn
}

type snapshotCmd struct {
	baseRegistryCmd
	replyChannel chan []Entry
}

type lenCmd struct {
	baseRegistryCmd
	replyChannel chan int
}

type stopCmd struct {
	baseRegistryCmd
}

// Registry maps each online user to its single live connection. At most one
// mapping per user exists at any instant; a new registration supersedes the
// previous one.
type Registry struct {
	cmdCh   chan registryCmd
	clock   clockwork.Clock
	entries map[uuid.UUID]Entry
	done    chan struct{}
}

func New(clock clockwork.Clock) *Registry {
	r := &Registry{
		cmdCh:   make(chan registryCmd, 256),
		clock:   clock,
		entries: make(map[uuid.UUID]Entry),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	defer close(r.done)

	for cmd := range r.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			c.replyChannel <- r.handleRegister(c)
		case unregisterCmd:
			c.replyChannel <- r.handleUnregister(c)
		case lookupCmd:
			entry, ok := r.entries[c.userID]
			if !ok {
				c.replyChannel <- nil
			} else {
				c.replyChannel <- entry.Conn
			}
		case snapshotCmd:
			c.replyChannel <- r.handleSnapshot()
		case lenCmd:
			c.replyChannel <- len(r.entries)
		case stopCmd:
			r.handleStop()
			return
		default:
			slog.Warn("Registry received unknown command type")
		}
	}
}

func (r *Registry) handleRegister(c registerCmd) domain.Conn {
	var previous domain.Conn
	if existing, ok := r.entries[c.userID]; ok {
		previous = existing.Conn
		metrics.RegistrySupersededTotal.Inc()
	}

	r.entries[c.userID] = Entry{
		UserID:      c.userID,
		Conn:        c.conn,
		ConnectedAt: r.clock.Now(),
	}
	metrics.RegistryConnections.Set(float64(len(r.entries)))

	slog.Debug("Connection registered", "user_id", c.userID.String(), "online", len(r.entries))
	return previous
}

func (r *Registry) handleUnregister(c unregisterCmd) unregisterResult {
	// Remove the mapping only if this connection is still the stored one.
	// A disconnect event for a connection that was already superseded by a
	// newer registration for the same user must not remove the new mapping.
	for userID, entry := range r.entries {
		if entry.Conn == c.conn {
			delete(r.entries, userID)
			metrics.RegistryConnections.Set(float64(len(r.entries)))
			slog.Debug("Connection unregistered", "user_id", userID.String(), "online", len(r.entries))
			return unregisterResult{userID: userID, removed: true}
		}
	}

	metrics.RegistryStaleUnregistersTotal.Inc()
	return unregisterResult{}
}

func (r *Registry) handleSnapshot() []Entry {
	snapshot := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		snapshot = append(snapshot, entry)
	}
	return snapshot
}

func (r *Registry) handleStop() {
	for userID, entry := range r.entries {
		entry.Conn.Close("server shutting down")
		delete(r.entries, userID)
	}
	metrics.RegistryConnections.Set(0)
}

// --- Public API ---

// Register stores conn as the live connection for userID and returns the
// superseded connection, or nil if the user was offline.
func (r *Registry) Register(userID uuid.UUID, conn domain.Conn) domain.Conn {
	replyCh := make(chan domain.Conn, 1)
	r.cmdCh <- registerCmd{userID: userID, conn: conn, replyChannel: replyCh}
	return <-replyCh
}

// Unregister removes the mapping held by conn, if conn is still current.
// Returns the userID that went offline and whether a mapping was removed.
func (r *Registry) Unregister(conn domain.Conn) (uuid.UUID, bool) {
	replyCh := make(chan unregisterResult, 1)
	r.cmdCh <- unregisterCmd{conn: conn, replyChannel: replyCh}
	result := <-replyCh
	return result.userID, result.removed
}

// Lookup returns the live connection for userID, or nil if offline.
func (r *Registry) Lookup(userID uuid.UUID) domain.Conn {
	replyCh := make(chan domain.Conn, 1)
	r.cmdCh <- lookupCmd{userID: userID, replyChannel: replyCh}
	return <-replyCh
}

// Snapshot returns a stable point-in-time copy of all mappings; broadcast
// iteration is unaffected by concurrent registry mutation.
func (r *Registry) Snapshot() []Entry {
	replyCh := make(chan []Entry, 1)
	r.cmdCh <- snapshotCmd{replyChannel: replyCh}
	return <-replyCh
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	replyCh := make(chan int, 1)
	r.cmdCh <- lenCmd{replyChannel: replyCh}
	return <-replyCh
}

// Stop closes all registered connections and shuts the actor down.
func (r *Registry) Stop() {
	r.cmdCh <- stopCmd{}
	<-r.done
}
