package service

import (
	"context"
	"fmt"
	"strings"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/memory"
	"stallpick-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ISessionResolver interface {
	Resolve(ctx context.Context, code string) (*entity.Session, error)
	Get(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error)
	ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error)
	Bootstrap(ctx context.Context, code string) (*Snapshot, error)
}

// Snapshot is everything a client needs to render a session from scratch.
type Snapshot struct {
	Session       *entity.Session
	Stalls        []*entity.Stall
	Availability  []*entity.Availability
	CurrentChoice *entity.CurrentChoice
}

type sessionResolver struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.SessionCache
	store      IStateStore
	logger     logger.ILogger
}

// NewSessionResolver builds a resolver. cache may be nil to always hit the
// repository.
func NewSessionResolver(uowFactory unitofwork.RepositoryFactory, cache *memory.SessionCache, store IStateStore, log logger.ILogger) ISessionResolver {
	return &sessionResolver{
		uowFactory: uowFactory,
		cache:      cache,
		store:      store,
		logger:     log,
	}
}

func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (s *sessionResolver) Resolve(ctx context.Context, code string) (*entity.Session, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("resolve session %q: %w", code, entity.ErrNotFound)
	}

	if s.cache != nil {
		if session, ok := s.cache.Get(normalized); ok {
			return session, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindLatestByCode(ctx, normalized)
	if err != nil {
		return nil, persistenceError("resolve session", err)
	}
	if session == nil {
		s.logger.Info("SessionResolver", "Session code not found", map[string]interface{}{"code": normalized})
		return nil, fmt.Errorf("resolve session %q: %w", normalized, entity.ErrNotFound)
	}

	if s.cache != nil {
		s.cache.Save(normalized, session)
	}
	return session, nil
}

func (s *sessionResolver) Get(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, sessionId)
	if err != nil {
		return nil, persistenceError("find session", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionId, entity.ErrNotFound)
	}
	return session, nil
}

func (s *sessionResolver) ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stalls, err := uow.StallRepository().FindByMarket(ctx, marketId)
	if err != nil {
		return nil, persistenceError("list stalls", err)
	}
	return stalls, nil
}

func (s *sessionResolver) Bootstrap(ctx context.Context, code string) (*Snapshot, error) {
	session, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	stalls, err := s.ListStalls(ctx, session.MarketId)
	if err != nil {
		return nil, err
	}

	availability, err := s.store.LoadAvailabilityRows(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	choice, err := s.store.LoadCurrentChoice(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Session:       session,
		Stalls:        stalls,
		Availability:  availability,
		CurrentChoice: choice,
	}, nil
}
