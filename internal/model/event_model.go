package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Event struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;index:idx_events_session_created,priority:1"`
	EventType string         `gorm:"type:varchar(32);not null;index"`
	Meta      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_events_session_created,priority:2"`
}

func (Event) TableName() string {
	return "events"
}
