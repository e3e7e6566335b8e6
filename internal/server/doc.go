// Package server wires the HTTP surface: the WebSocket entry point, the REST
// endpoints for conversation and notification history, health probes and the
// Prometheus metrics endpoint.
package server
