package mapper

import (
	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

func AvailabilityToRow(a *entity.Availability) dto.AvailabilityRow {
	return dto.AvailabilityRow{
		SessionId: a.SessionId,
		StallId:   a.StallId,
		IsOpen:    a.IsOpen,
		UpdatedBy: a.UpdatedBy,
		Revision:  a.Revision,
		UpdatedAt: a.UpdatedAt,
	}
}

func CurrentChoiceToRow(c *entity.CurrentChoice) dto.CurrentChoiceRow {
	return dto.CurrentChoiceRow{
		SessionId:   c.SessionId,
		StallId:     c.StallId,
		RequestText: c.RequestText,
		Revision:    c.Revision,
		UpdatedAt:   c.UpdatedAt,
	}
}

func RowToAvailability(r dto.AvailabilityRow) *entity.Availability {
	return &entity.Availability{
		SessionId: r.SessionId,
		StallId:   r.StallId,
		IsOpen:    r.IsOpen,
		UpdatedBy: r.UpdatedBy,
		Revision:  r.Revision,
		UpdatedAt: r.UpdatedAt,
	}
}

func RowToCurrentChoice(r dto.CurrentChoiceRow) *entity.CurrentChoice {
	return &entity.CurrentChoice{
		SessionId:   r.SessionId,
		StallId:     r.StallId,
		RequestText: r.RequestText,
		Revision:    r.Revision,
		UpdatedAt:   r.UpdatedAt,
	}
}

// StallToResponse fills IsOpen only when the session has a row for the stall.
func StallToResponse(s *entity.Stall, availability map[uuid.UUID]bool) dto.StallResponse {
	res := dto.StallResponse{
		Id:            s.Id,
		Name:          s.Name,
		BannerUrl:     s.BannerUrl,
		PhysicalLabel: s.PhysicalLabel,
		SortOrder:     s.SortOrder,
	}
	if open, ok := availability[s.Id]; ok {
		res.IsOpen = &open
	}
	return res
}

func ResponseToStall(r dto.StallResponse, marketId uuid.UUID) *entity.Stall {
	return &entity.Stall{
		Id:            r.Id,
		MarketId:      marketId,
		Name:          r.Name,
		BannerUrl:     r.BannerUrl,
		PhysicalLabel: r.PhysicalLabel,
		SortOrder:     r.SortOrder,
	}
}

func SessionToResponse(s *entity.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Id:        s.Id,
		MarketId:  s.MarketId,
		Code:      s.Code,
		CreatedAt: s.CreatedAt,
		BuyerPath: "/buyer/" + s.Code,
		EaterPath: "/eater/" + s.Code,
	}
}

func ResponseToSession(r dto.SessionResponse) *entity.Session {
	return &entity.Session{
		Id:        r.Id,
		MarketId:  r.MarketId,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
	}
}

func EventToResponse(e *entity.Event) dto.EventResponse {
	return dto.EventResponse{
		Id:        e.Id,
		SessionId: e.SessionId,
		EventType: string(e.Kind),
		Meta:      e.Meta,
		CreatedAt: e.CreatedAt,
	}
}

func ResponseToEvent(r dto.EventResponse) *entity.Event {
	return &entity.Event{
		Id:        r.Id,
		SessionId: r.SessionId,
		Kind:      entity.EventKind(r.EventType),
		Meta:      r.Meta,
		CreatedAt: r.CreatedAt,
	}
}
