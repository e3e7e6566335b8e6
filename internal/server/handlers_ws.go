package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"feedpulse/internal/metrics"
	"feedpulse/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients connect from a separate frontend origin
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsTotal.WithLabelValues(string(reason)).Inc()
		slog.Info("Rejecting connection attempt", "ip", ip, "reason", string(reason))
		status := http.StatusTooManyRequests
		if reason == LimitReasonGlobal {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, map[string]string{"error": "connection limit reached"})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		slog.Info("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}
	metrics.WebSocketConnectionsTotal.WithLabelValues("accepted").Inc()

	session := realtime.NewSession(
		conn,
		s.clock,
		s.registry,
		s.presence,
		s.messages,
		s.typing,
		s.notifications,
	)

	// Blocks until the peer disconnects or the writer tears the socket down.
	session.Run(c.Request().Context())
	return nil
}
