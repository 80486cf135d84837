package entity

import (
	"time"

	"github.com/google/uuid"
)

type Market struct {
	Id        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Session is one buyer/eater negotiation over a market, addressed by a
// human-shareable code.
type Session struct {
	Id        uuid.UUID
	MarketId  uuid.UUID
	Code      string
	CreatedAt time.Time
}
