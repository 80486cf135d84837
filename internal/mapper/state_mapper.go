package mapper

import (
	"encoding/json"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/model"

	"gorm.io/datatypes"
)

type StateMapper struct{}

func NewStateMapper() *StateMapper {
	return &StateMapper{}
}

func (m *StateMapper) AvailabilityToEntity(a *model.Availability) *entity.Availability {
	if a == nil {
		return nil
	}
	return &entity.Availability{
		SessionId: a.SessionId,
		StallId:   a.StallId,
		IsOpen:    a.IsOpen,
		UpdatedBy: a.UpdatedBy,
		Revision:  a.Revision,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *StateMapper) CurrentChoiceToEntity(c *model.CurrentChoice) *entity.CurrentChoice {
	if c == nil {
		return nil
	}
	return &entity.CurrentChoice{
		SessionId:   c.SessionId,
		StallId:     c.StallId,
		RequestText: c.RequestText,
		Revision:    c.Revision,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *StateMapper) EventToModel(e *entity.Event) (*model.Event, error) {
	if e == nil {
		return nil, nil
	}
	meta := e.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return &model.Event{
		Id:        e.Id,
		SessionId: e.SessionId,
		EventType: string(e.Kind),
		Meta:      datatypes.JSON(raw),
		CreatedAt: e.CreatedAt,
	}, nil
}
