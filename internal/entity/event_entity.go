package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventAllChecked    EventKind = "all_checked"
	EventDecisionMade  EventKind = "decision_made"
	EventDishRequested EventKind = "dish_requested"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventAllChecked, EventDecisionMade, EventDishRequested:
		return true
	}
	return false
}

// Event is an append-only audit record. Rows are never updated or deleted.
type Event struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Kind      EventKind
	Meta      map[string]interface{}
	CreatedAt time.Time
}
