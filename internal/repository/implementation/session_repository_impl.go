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

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) CreateMarket(ctx context.Context, market *entity.Market) error {
	m := r.mapper.MarketToModel(market)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	market.Id = m.Id
	market.CreatedAt = m.CreatedAt
	return nil
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var m model.Session
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionRepositoryImpl) FindLatestByCode(ctx context.Context, code string) (*entity.Session, error) {
	var m model.Session
	query := specification.ByCode{Code: code}.Apply(r.db.WithContext(ctx))
	if err := query.Scopes(scope.OrderByCreatedDesc).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
