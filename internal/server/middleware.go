package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"feedpulse/internal/metrics"
)

// rateLimitMiddleware enforces the Redis-backed fixed-window limit per client
// IP. A limiter outage fails open: losing Redis must not take the REST
// surface down with it.
func (s *Server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		allowed, err := s.rateLimiter.Allow(c.Request().Context(), c.RealIP())
		if err != nil {
			slog.Warn("Rate limiter unavailable, allowing request", "error", err)
			return next(c)
		}
		if !allowed {
			metrics.APIRateLimitedTotal.Inc()
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
		}
		return next(c)
	}
}
