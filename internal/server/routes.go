package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (never rate limited)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// REST surface, behind the Redis-backed rate limiter
	api := s.echo.Group("/api", s.rateLimitMiddleware)
	api.GET("/messages/:userA/:userB", s.handleGetConversation)
	api.GET("/notifications/:userId", s.handleListNotifications)
	api.POST("/notifications", s.handleCreateNotification)

	// Realtime entry point
	s.echo.GET("/ws", s.handleWebSocket)
}
