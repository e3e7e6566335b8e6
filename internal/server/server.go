package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"feedpulse/internal/config"
	"feedpulse/internal/domain"
	"feedpulse/internal/errors"
	"feedpulse/internal/notify"
	"feedpulse/internal/realtime"
)

// conversationService is the message relay surface the server needs.
type conversationService interface {
	Send(ctx context.Context, fromUserID, toUserID uuid.UUID, body string) error
	Fetch(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error)
}

type typingService interface {
	RelayTyping(fromUserID, toUserID uuid.UUID, payload map[string]json.RawMessage)
}

type notificationService interface {
	Create(ctx context.Context, params notify.CreateParams) (*domain.Notification, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	ReplayPending(ctx context.Context, userID uuid.UUID, conn domain.Conn)
}

type apiRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// postgresPinger is a minimal interface for PostgreSQL health checks.
type postgresPinger interface {
	Ping(ctx context.Context) error
}

// redisPinger is a minimal interface for Redis health checks.
type redisPinger interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	clock         clockwork.Clock
	registry      realtime.ConnRegistry
	presence      realtime.PresenceNotifier
	messages      conversationService
	typing        typingService
	notifications notificationService
	limits        *ConnectionLimits
	rateLimiter   apiRateLimiter
	postgres      postgresPinger
	redis         redisPinger
	startTime     time.Time
}

func NewServer(
	cfg *config.Config,
	clock clockwork.Clock,
	reg realtime.ConnRegistry,
	presence realtime.PresenceNotifier,
	messages conversationService,
	typing typingService,
	notifications notificationService,
	rateLimiter apiRateLimiter,
	postgres postgresPinger,
	redis redisPinger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(errors.Middleware())

	srv := &Server{
		echo:          e,
		config:        cfg,
		clock:         clock,
		registry:      reg,
		presence:      presence,
		messages:      messages,
		typing:        typing,
		notifications: notifications,
		limits:        NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectionsPerSecond, cfg.ConnectionBurst),
		rateLimiter:   rateLimiter,
		postgres:      postgres,
		redis:         redis,
		startTime:     clock.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
