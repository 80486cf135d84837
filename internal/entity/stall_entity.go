package entity

import "github.com/google/uuid"

type Stall struct {
	Id            uuid.UUID
	MarketId      uuid.UUID
	Name          string
	BannerUrl     *string
	PhysicalLabel *string
	SortOrder     int
}
