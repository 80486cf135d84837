package implementation

import (
	"context"
	"errors"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/model"
	"stallpick-be/internal/repository/contract"
	"stallpick-be/internal/repository/scope"
	"stallpick-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StallRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewStallRepository(db *gorm.DB) contract.StallRepository {
	return &StallRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *StallRepositoryImpl) Create(ctx context.Context, stall *entity.Stall) error {
	m := r.mapper.StallToModel(stall)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*stall = *r.mapper.StallToEntity(m)
	return nil
}

func (r *StallRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID) (*entity.Stall, error) {
	var m model.Stall
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.StallToEntity(&m), nil
}

func (r *StallRepositoryImpl) FindByMarket(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	var models []*model.Stall
	query := specification.ByMarketID{MarketID: marketId}.Apply(r.db.WithContext(ctx))
	if err := query.Scopes(scope.OrderBySortOrder).Find(&models).Error; err != nil {
		return nil, err
	}

	stalls := make([]*entity.Stall, 0, len(models))
	for _, m := range models {
		stalls = append(stalls, r.mapper.StallToEntity(m))
	}
	return stalls, nil
}
