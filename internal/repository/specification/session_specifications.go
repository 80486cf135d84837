package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByCode matches a session code case-insensitively.
type ByCode struct {
	Code string
}

func (s ByCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(code) = ?", strings.ToLower(s.Code))
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByMarketID struct {
	MarketID uuid.UUID
}

func (s ByMarketID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("market_id = ?", s.MarketID)
}

type ByStallID struct {
	StallID uuid.UUID
}

func (s ByStallID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stall_id = ?", s.StallID)
}
