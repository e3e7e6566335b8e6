package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"feedpulse/internal/domain"
	"feedpulse/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// clientWriter owns all writes to one WebSocket connection. It implements
// domain.Conn: Send enqueues without blocking, IsOpen reflects the writer
// state at the moment of the call. Keepalive pings with a pong read deadline
// surface half-open connections; there is no transport close signal to rely
// on otherwise.
type clientWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	open        atomic.Bool
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.open.Store(true)
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()
	defer cw.open.Store(false)

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				cw.open.Store(false)
				// Unblock the read pump so the session can clean up.
				_ = cw.connection.Close()
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				cw.open.Store(false)
				_ = cw.connection.Close()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

// Send enqueues a text frame for delivery. It never blocks: a closed peer or
// a full buffer fails immediately.
func (cw *clientWriter) Send(data []byte) error {
	if !cw.open.Load() {
		return domain.ErrConnectionClosed
	}
	select {
	case cw.sendChannel <- data:
		return nil
	default:
		metrics.WebSocketSlowSendsDropped.Inc()
		return domain.ErrSendBufferFull
	}
}

// IsOpen reports whether the writer still accepts frames.
func (cw *clientWriter) IsOpen() bool {
	return cw.open.Load()
}

// Close sends a close frame with the given reason and tears the writer down.
// Safe to call more than once and from any goroutine.
func (cw *clientWriter) Close(reason string) {
	cw.stopOnce.Do(func() {
		cw.open.Store(false)

		// Signal the run goroutine and wait for it before writing the close
		// frame; the writer goroutine must be the only writer until then.
		close(cw.doneChannel)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *clientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	deadline := cw.clock.Now().Add(writeDeadline)
	_ = cw.connection.SetWriteDeadline(deadline)
}

func (cw *clientWriter) updateReadDeadline() {
	deadline := cw.clock.Now().Add(pongDeadline)
	_ = cw.connection.SetReadDeadline(deadline)
}
