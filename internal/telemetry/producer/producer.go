// Package producer ships audit events to a broker for the worker to forward to Loki.
package producer

import "staffhub/backend/internal/telemetry"

// Producer is an audit sink that owns a broker connection.
type Producer interface {
	telemetry.EventEmitter
	// Close flushes and releases the connection. Safe to call more than once.
	Close() error
}
