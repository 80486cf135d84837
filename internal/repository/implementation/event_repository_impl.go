package implementation

import (
	"context"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/model"
	"stallpick-be/internal/repository/contract"
	"stallpick-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StateMapper
}

func NewEventRepository(db *gorm.DB) contract.EventRepository {
	return &EventRepositoryImpl{
		db:     db,
		mapper: mapper.NewStateMapper(),
	}
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *entity.Event) error {
	m, err := r.mapper.EventToModel(event)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	event.Id = m.Id
	event.CreatedAt = m.CreatedAt
	return nil
}

func (r *EventRepositoryImpl) CountBySession(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind) (int64, error) {
	var count int64
	query := specification.BySessionID{SessionID: sessionId}.Apply(r.db.WithContext(ctx).Model(&model.Event{}))
	if kind != "" {
		query = specification.Filter("event_type", string(kind)).Apply(query)
	}
	err := query.Count(&count).Error
	return count, err
}
