package dto

import (
	"time"

	"github.com/google/uuid"
)

type StallResponse struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	BannerUrl     *string   `json:"banner_url,omitempty"`
	PhysicalLabel *string   `json:"physical_stalls,omitempty"`
	SortOrder     int       `json:"sort_order"`
	IsOpen        *bool     `json:"is_open,omitempty"`
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	MarketId  uuid.UUID `json:"market_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	BuyerPath string    `json:"buyer_path"`
	EaterPath string    `json:"eater_path"`
}

type SnapshotResponse struct {
	Session       SessionResponse   `json:"session"`
	Stalls        []StallResponse   `json:"stalls"`
	Availability  []AvailabilityRow `json:"availability"`
	CurrentChoice CurrentChoiceRow  `json:"current_choice"`
}
