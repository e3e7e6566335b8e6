// Package registry implements the connection registry using the actor pattern.
//
// A single goroutine owns the userID -> connection map; all access goes
// through a command channel (no mutexes). The registry is volatile: it is
// rebuilt from empty on every process restart and is only a reachability
// cache, never a source of truth.
package registry
