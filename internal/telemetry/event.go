package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Source values for Event.Source.
const (
	SourceHTTP   = "http"
	SourceSocket = "socket"
	SourceWorker = "worker"
)

// Event is one audit/telemetry record. It is serialized as JSON onto Kafka and read back by the Loki shipper.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"eventType"`
	UserID    string            `json:"userId,omitempty"`
	Role      string            `json:"role,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewEvent returns an Event with a fresh id and the current UTC time.
func NewEvent(eventType, source string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
