package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	LogFormat   string

	// WebSocket connection limits
	MaxConnections       int64
	MaxConnectionsPerIP  int
	ConnectionsPerSecond float64
	ConnectionBurst      int

	// REST rate limiting (requests per window, fixed window seconds)
	APIRateLimit  int
	APIRateWindow int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	var err error
	if cfg.MaxConnections, err = getEnvInt64("WS_MAX_CONNECTIONS", 10000); err != nil {
		return nil, err
	}
	if cfg.MaxConnectionsPerIP, err = getEnvInt("WS_MAX_CONNECTIONS_PER_IP", 20); err != nil {
		return nil, err
	}
	if cfg.ConnectionsPerSecond, err = getEnvFloat("WS_CONNECTIONS_PER_SECOND", 10.0); err != nil {
		return nil, err
	}
	if cfg.ConnectionBurst, err = getEnvInt("WS_CONNECTION_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.APIRateLimit, err = getEnvInt("API_RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.APIRateWindow, err = getEnvInt("API_RATE_WINDOW_SECONDS", 900); err != nil {
		return nil, err
	}

	if cfg.MaxConnections <= 0 {
		return nil, fmt.Errorf("WS_MAX_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return nil, fmt.Errorf("WS_MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateWindow <= 0 {
		return nil, fmt.Errorf("API_RATE_LIMIT and API_RATE_WINDOW_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
