package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"feedpulse/internal/config"
	"feedpulse/internal/database"
	"feedpulse/internal/logging"
	"feedpulse/internal/notify"
	"feedpulse/internal/presence"
	"feedpulse/internal/redis"
	"feedpulse/internal/registry"
	"feedpulse/internal/relay"
	"feedpulse/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, reg *registry.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Close remaining client connections with a close frame, then stop
		// the registry actor.
		reg.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	userRepo := database.NewUserRepo(pool)
	messageRepo := database.NewMessageRepo(pool)
	notificationRepo := database.NewNotificationRepo(pool)

	// The registry is volatile: it starts empty and is rebuilt from client
	// reconnects after every restart.
	reg := registry.New(clock)

	broadcaster := presence.NewBroadcaster(reg, userRepo)
	messageRelay := relay.NewMessageRelay(messageRepo, reg, clock)
	typingRelay := relay.NewTypingRelay(reg)
	dispatcher := notify.NewDispatcher(notificationRepo, reg, clock)

	rateLimiter := redis.NewRequestRateLimiter(redisClient, clock, cfg.APIRateLimit, time.Duration(cfg.APIRateWindow)*time.Second)

	srv := server.NewServer(
		cfg,
		clock,
		reg,
		broadcaster,
		messageRelay,
		typingRelay,
		dispatcher,
		rateLimiter,
		pool,
		redisClient,
	)

	done := runGracefulShutdown(srv, reg)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
