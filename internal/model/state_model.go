package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability has one row per (session, stall).
type Availability struct {
	SessionId uuid.UUID `gorm:"type:uuid;primaryKey"`
	StallId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsOpen    bool      `gorm:"not null;default:false"`
	UpdatedBy string    `gorm:"type:varchar(32);not null;default:'buyer'"`
	Revision  int64     `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Availability) TableName() string {
	return "availability"
}

// CurrentChoice has at most one row per session.
type CurrentChoice struct {
	SessionId   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StallId     *uuid.UUID `gorm:"type:uuid"`
	RequestText *string    `gorm:"type:text"`
	Revision    int64      `gorm:"not null;default:1"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (CurrentChoice) TableName() string {
	return "current_choice"
}
