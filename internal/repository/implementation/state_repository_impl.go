package implementation

import (
	"context"
	"errors"
	"time"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/model"
	"stallpick-be/internal/repository/contract"
	"stallpick-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AvailabilityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StateMapper
}

func NewAvailabilityRepository(db *gorm.DB) contract.AvailabilityRepository {
	return &AvailabilityRepositoryImpl{
		db:     db,
		mapper: mapper.NewStateMapper(),
	}
}

func (r *AvailabilityRepositoryImpl) Upsert(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, updatedBy string) (*entity.Availability, error) {
	row := model.Availability{
		SessionId: sessionId,
		StallId:   stallId,
		IsOpen:    isOpen,
		UpdatedBy: updatedBy,
		Revision:  1,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "stall_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_open":    isOpen,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"revision":   gorm.Expr("availability.revision + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the committed revision, not the insert default.
	var committed model.Availability
	query := specification.BySessionID{SessionID: sessionId}.Apply(r.db.WithContext(ctx))
	query = specification.ByStallID{StallID: stallId}.Apply(query)
	if err := query.First(&committed).Error; err != nil {
		return nil, err
	}
	return r.mapper.AvailabilityToEntity(&committed), nil
}

func (r *AvailabilityRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	var models []*model.Availability
	query := specification.BySessionID{SessionID: sessionId}.Apply(r.db.WithContext(ctx))
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	rows := make([]*entity.Availability, 0, len(models))
	for _, m := range models {
		rows = append(rows, r.mapper.AvailabilityToEntity(m))
	}
	return rows, nil
}

type CurrentChoiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StateMapper
}

func NewCurrentChoiceRepository(db *gorm.DB) contract.CurrentChoiceRepository {
	return &CurrentChoiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewStateMapper(),
	}
}

func (r *CurrentChoiceRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	var m model.CurrentChoice
	query := specification.BySessionID{SessionID: sessionId}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CurrentChoiceToEntity(&m), nil
}

func (r *CurrentChoiceRepositoryImpl) UpsertStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	row := model.CurrentChoice{SessionId: sessionId, StallId: &stallId, Revision: 1}
	return r.upsert(ctx, &row, "stall_id", stallId)
}

func (r *CurrentChoiceRepositoryImpl) UpsertRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	row := model.CurrentChoice{SessionId: sessionId, RequestText: &text, Revision: 1}
	return r.upsert(ctx, &row, "request_text", text)
}

// upsert inserts row or, on conflict, updates only the named column.
func (r *CurrentChoiceRepositoryImpl) upsert(ctx context.Context, row *model.CurrentChoice, column string, value interface{}) (*entity.CurrentChoice, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
			"revision":   gorm.Expr("current_choice.revision + 1"),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	committed, err := r.FindBySession(ctx, row.SessionId)
	if err != nil {
		return nil, err
	}
	if committed == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return committed, nil
}
