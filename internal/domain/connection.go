package domain

// Conn is the handle the registry and delivery paths hold for one live
// realtime connection. Send enqueues a text frame without blocking; it fails
// if the peer is gone or its buffer is full. IsOpen must be re-checked at
// the moment of final send, not trusted from dispatch time.
type Conn interface {
	Send(data []byte) error
	IsOpen() bool
	Close(reason string)
}
