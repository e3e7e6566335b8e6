package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry metrics
var (
	// RegistryConnections tracks current registered connections
	RegistryConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_connections_current",
			Help: "Current number of registered realtime connections",
		},
	)

	// RegistrySupersededTotal tracks registrations that replaced a live connection
	RegistrySupersededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_superseded_total",
			Help: "Registrations that replaced an existing connection for the same user",
		},
	)

	// RegistryStaleUnregistersTotal tracks unregister calls for already-replaced connections
	RegistryStaleUnregistersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_stale_unregisters_total",
			Help: "Unregister calls ignored because the connection was already superseded",
		},
	)
)

// Presence metrics
var (
	// PresenceBroadcastsTotal tracks presence broadcast cycles by outcome
	PresenceBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_broadcasts_total",
			Help: "Presence broadcast cycles by outcome",
		},
		[]string{"outcome"},
	)

	// PresenceSkippedConnsTotal tracks conns found closed during a broadcast
	PresenceSkippedConnsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_skipped_connections_total",
			Help: "Connections skipped during presence broadcast because they were closed",
		},
	)
)

// Message relay metrics
var (
	// MessagesPersistedTotal tracks chat message persistence by status
	MessagesPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_persisted_total",
			Help: "Chat message persistence attempts by status",
		},
		[]string{"status"},
	)

	// MessagesDeliveredTotal tracks realtime chat deliveries by status
	MessagesDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_delivered_total",
			Help: "Realtime chat delivery attempts by status (ok/offline/failed)",
		},
		[]string{"status"},
	)

	// TypingRelayedTotal tracks typing signals relayed or dropped
	TypingRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typing_relayed_total",
			Help: "Typing signals by outcome (ok/offline/failed)",
		},
		[]string{"outcome"},
	)
)

// Notification metrics
var (
	// NotificationsCreatedTotal tracks persisted notifications by action
	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Persisted notifications by action",
		},
		[]string{"action"},
	)

	// NotificationsDeliveredTotal tracks immediate (live) deliveries by status
	NotificationsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Immediate notification delivery attempts by status (ok/offline/failed)",
		},
		[]string{"status"},
	)

	// NotificationsReplayedTotal tracks notifications pushed during replay
	NotificationsReplayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_replayed_total",
			Help: "Notifications pushed during replay-on-connect",
		},
	)

	// NotificationReplayBatchesTotal tracks replay batch outcomes
	NotificationReplayBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_replay_batches_total",
			Help: "Replay batch mark-read outcomes (ok/error)",
		},
		[]string{"outcome"},
	)
)

// Dispatcher / transport metrics
var (
	// FramesDroppedTotal tracks inbound frames dropped by reason
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frames_dropped_total",
			Help: "Inbound frames dropped by reason (malformed/unknown/preauth)",
		},
		[]string{"reason"},
	)

	// WebSocketConnectionsTotal tracks accepted and rejected connection attempts
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "WebSocket connection attempts by result (accepted or limit reason)",
		},
		[]string{"result"},
	)

	// WebSocketPingFailures tracks keepalive ping write failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Keepalive ping write failures",
		},
	)

	// WebSocketSlowSendsDropped tracks sends dropped because a peer buffer was full
	WebSocketSlowSendsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_sends_dropped_total",
			Help: "Outbound frames dropped because the peer send buffer was full",
		},
	)
)

// Rate limit metrics
var (
	// APIRateLimitedTotal tracks REST requests rejected by the Redis limiter
	APIRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limited_total",
			Help: "REST requests rejected by the rate limiter",
		},
	)
)
