package model

import (
	"time"

	"github.com/google/uuid"
)

type Market struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Market) TableName() string {
	return "markets"
}

// Session codes are not unique; lookups order by created_at DESC.
type Session struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MarketId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Market    Market    `gorm:"foreignKey:MarketId;constraint:OnDelete:CASCADE;"`
	Code      string    `gorm:"type:varchar(64);not null;index:idx_sessions_code_created,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_sessions_code_created,priority:2,sort:desc"`
}

func (Session) TableName() string {
	return "sessions"
}

type Stall struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MarketId      uuid.UUID `gorm:"type:uuid;not null;index:idx_stalls_market_sort,priority:1"`
	Market        Market    `gorm:"foreignKey:MarketId;constraint:OnDelete:CASCADE;"`
	Name          string    `gorm:"type:varchar(255);not null"`
	BannerUrl     *string   `gorm:"type:text"`
	PhysicalLabel *string   `gorm:"column:physical_stalls;type:varchar(64)"`
	SortOrder     int       `gorm:"not null;default:0;index:idx_stalls_market_sort,priority:2"`
}

func (Stall) TableName() string {
	return "stalls"
}
