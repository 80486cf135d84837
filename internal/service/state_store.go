package service

import (
	"context"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	UpdatedByBuyer = "buyer"
	UpdatedByEater = "eater"
)

type IStateStore interface {
	LoadAvailability(ctx context.Context, sessionId uuid.UUID) (map[uuid.UUID]bool, error)
	LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error)
	SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error)
	// LoadCurrentChoice never returns nil on success; a session without a
	// row yields a zero-revision choice with both fields absent.
	LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error)
	SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error)
	SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error)
}

// ChangePublisher receives every committed row. Implementations must not
// block the writer for long.
type ChangePublisher interface {
	PublishAvailability(ctx context.Context, row *entity.Availability) error
	PublishCurrentChoice(ctx context.Context, row *entity.CurrentChoice) error
}

type stateStore struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  ChangePublisher
	logger     logger.ILogger
}

func NewStateStore(uowFactory unitofwork.RepositoryFactory, publisher ChangePublisher, log logger.ILogger) IStateStore {
	return &stateStore{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *stateStore) LoadAvailability(ctx context.Context, sessionId uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.LoadAvailabilityRows(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		out[row.StallId] = row.IsOpen
	}
	return out, nil
}

func (s *stateStore) LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.AvailabilityRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, persistenceError("load availability", err)
	}
	return rows, nil
}

func (s *stateStore) SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, persistenceError("set availability", err)
	}
	defer uow.Rollback()

	row, err := uow.AvailabilityRepository().Upsert(ctx, sessionId, stallId, isOpen, attributedTo)
	if err != nil {
		return nil, persistenceError("set availability", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, persistenceError("set availability", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAvailability(ctx, row); err != nil {
			s.logger.Warn("StateStore", "Availability change not published", map[string]interface{}{
				"session_id": sessionId.String(),
				"stall_id":   stallId.String(),
				"error":      err.Error(),
			})
		}
	}
	return row, nil
}

func (s *stateStore) LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.CurrentChoiceRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, persistenceError("load current choice", err)
	}
	if row == nil {
		return &entity.CurrentChoice{SessionId: sessionId}, nil
	}
	return row, nil
}

func (s *stateStore) SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	return s.writeChoice(ctx, "set chosen stall", sessionId, func(uow unitofwork.UnitOfWork) (*entity.CurrentChoice, error) {
		return uow.CurrentChoiceRepository().UpsertStall(ctx, sessionId, stallId)
	})
}

func (s *stateStore) SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	return s.writeChoice(ctx, "set request text", sessionId, func(uow unitofwork.UnitOfWork) (*entity.CurrentChoice, error) {
		return uow.CurrentChoiceRepository().UpsertRequestText(ctx, sessionId, text)
	})
}

func (s *stateStore) writeChoice(ctx context.Context, op string, sessionId uuid.UUID, write func(unitofwork.UnitOfWork) (*entity.CurrentChoice, error)) (*entity.CurrentChoice, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, persistenceError(op, err)
	}
	defer uow.Rollback()

	row, err := write(uow)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, persistenceError(op, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCurrentChoice(ctx, row); err != nil {
			s.logger.Warn("StateStore", "Current choice change not published", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
		}
	}
	return row, nil
}
