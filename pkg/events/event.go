package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is what the analytics sinks publish.
type Event interface {
	// EventType is the event kind, e.g. "decision_made". Sinks use it as the
	// subject suffix or routing key.
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// SessionEvent is an event log row as it leaves the service.
type SessionEvent struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	Kind       string
	Meta       map[string]interface{}
	OccurredAt time.Time
}

func (e SessionEvent) EventType() string {
	return e.Kind
}

func (e SessionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"id":          e.Id.String(),
		"session_id":  e.SessionId.String(),
		"event_type":  e.Kind,
		"meta":        e.Meta,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e SessionEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Received is an event rebuilt from a message on the wire.
type Received struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e Received) EventType() string {
	return e.Type
}

func (e Received) Payload() map[string]interface{} {
	return e.Data
}

func (e Received) Timestamp() time.Time {
	return e.OccurredAt
}
