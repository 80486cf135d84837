package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	FrameChange    = "change"
	FrameBroadcast = "broadcast"

	TableAvailability  = "availability"
	TableCurrentChoice = "current_choice"

	OpUpsert = "upsert"
)

// Frame is the single envelope pushed to realtime subscribers.
//
// A change frame carries the full committed row in Row. A broadcast frame
// carries an Event name and an arbitrary Payload and is never persisted.
type Frame struct {
	Type    string          `json:"type"`
	Table   string          `json:"table,omitempty"`
	Op      string          `json:"op,omitempty"`
	Row     json.RawMessage `json:"row,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type AvailabilityRow struct {
	SessionId uuid.UUID `json:"session_id"`
	StallId   uuid.UUID `json:"stall_id"`
	IsOpen    bool      `json:"is_open"`
	UpdatedBy string    `json:"updated_by"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentChoiceRow always carries both fields, even when only one changed.
type CurrentChoiceRow struct {
	SessionId   uuid.UUID  `json:"session_id"`
	StallId     *uuid.UUID `json:"stall_id"`
	RequestText *string    `json:"request_text"`
	Revision    int64      `json:"revision"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type DecisionPayload struct {
	StallId   *uuid.UUID `json:"stall_id,omitempty"`
	StallName string     `json:"stall_name"`
}

type DishRequestPayload struct {
	Text string `json:"text"`
}

func NewChangeFrame(table string, row interface{}) (Frame, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameChange, Table: table, Op: OpUpsert, Row: raw}, nil
}

func NewBroadcastFrame(event string, payload interface{}) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameBroadcast, Event: event, Payload: raw}, nil
}
