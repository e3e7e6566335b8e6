// Package relay carries direct chat messages and typing signals to online
// recipients. Messages are persisted regardless of recipient presence; typing
// signals are ephemeral and dropped when the recipient is offline.
package relay
