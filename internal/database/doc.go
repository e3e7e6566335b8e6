// Package database implements the Postgres-backed repositories.
//
// The durable store is the sole source of truth across restarts; the
// connection registry is only a reachability cache rebuilt from empty.
package database
