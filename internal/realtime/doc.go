// Package realtime owns the per-connection lifecycle: frame decoding, the
// inbound dispatcher state machine, and the outbound writer goroutine.
//
// One Session goroutine per connection reads and handles frames strictly in
// arrival order; a per-connection writer with a buffered send channel keeps
// slow peers from blocking any handler.
package realtime
