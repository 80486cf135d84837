package dto

import (
	"time"

	"github.com/google/uuid"
)

type SetAvailabilityRequest struct {
	IsOpen    *bool  `json:"is_open" validate:"required"`
	UpdatedBy string `json:"updated_by" validate:"omitempty,max=32"`
}

type SetChosenStallRequest struct {
	StallId uuid.UUID `json:"stall_id" validate:"required"`
}

type SetRequestTextRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

type AppendEventRequest struct {
	Kind string                 `json:"kind" validate:"required,oneof=all_checked decision_made dish_requested"`
	Meta map[string]interface{} `json:"meta"`
}

type BroadcastRequest struct {
	Event   string                 `json:"event" validate:"required,oneof=decision_made dish_requested"`
	Payload map[string]interface{} `json:"payload"`
}

type AllCheckedResponse struct {
	EaterPath string `json:"eater_path"`
}

type EventResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"session_id"`
	EventType string                 `json:"event_type"`
	Meta      map[string]interface{} `json:"meta"`
	CreatedAt time.Time              `json:"created_at"`
}

type EventCountResponse struct {
	Kind  string `json:"kind,omitempty"`
	Count int64  `json:"count"`
}
