package mapper

import (
	"stallpick-be/internal/entity"
	"stallpick-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}
	return &entity.Session{
		Id:        s.Id,
		MarketId:  s.MarketId,
		Code:      s.Code,
		CreatedAt: s.CreatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}
	return &model.Session{
		Id:        s.Id,
		MarketId:  s.MarketId,
		Code:      s.Code,
		CreatedAt: s.CreatedAt,
	}
}

func (m *SessionMapper) MarketToModel(mk *entity.Market) *model.Market {
	if mk == nil {
		return nil
	}
	return &model.Market{
		Id:        mk.Id,
		Name:      mk.Name,
		CreatedAt: mk.CreatedAt,
	}
}

func (m *SessionMapper) StallToEntity(s *model.Stall) *entity.Stall {
	if s == nil {
		return nil
	}
	return &entity.Stall{
		Id:            s.Id,
		MarketId:      s.MarketId,
		Name:          s.Name,
		BannerUrl:     s.BannerUrl,
		PhysicalLabel: s.PhysicalLabel,
		SortOrder:     s.SortOrder,
	}
}

func (m *SessionMapper) StallToModel(s *entity.Stall) *model.Stall {
	if s == nil {
		return nil
	}
	return &model.Stall{
		Id:            s.Id,
		MarketId:      s.MarketId,
		Name:          s.Name,
		BannerUrl:     s.BannerUrl,
		PhysicalLabel: s.PhysicalLabel,
		SortOrder:     s.SortOrder,
	}
}
