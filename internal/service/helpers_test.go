package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/contract"
	"stallpick-be/internal/repository/memory"
	"stallpick-be/internal/repository/unitofwork"
	"stallpick-be/pkg/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var testLogger = logger.NewNopLogger()

type world struct {
	store   *memory.Store
	factory unitofwork.RepositoryFactory
	market  *entity.Market
	session *entity.Session
	stalls  []*entity.Stall
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	uow := factory.NewUnitOfWork(ctx)

	market := &entity.Market{Name: "Maxwell"}
	require.NoError(t, uow.SessionRepository().CreateMarket(ctx, market))

	session := &entity.Session{MarketId: market.Id, Code: "market1"}
	require.NoError(t, uow.SessionRepository().Create(ctx, session))

	w := &world{store: store, factory: factory, market: market, session: session}
	for i, name := range []string{"Tian Tian", "Ah Tai", "Zhen Zhen"} {
		stall := &entity.Stall{MarketId: market.Id, Name: name, SortOrder: i + 1}
		require.NoError(t, uow.StallRepository().Create(ctx, stall))
		w.stalls = append(w.stalls, stall)
	}
	return w
}

// failingFactory hands out units of work whose every call fails.
type failingFactory struct {
	err error
}

func (f failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingUow{err: f.err}
}

type failingUow struct {
	err error
}

func (u failingUow) Begin(ctx context.Context) error { return nil }
func (u failingUow) Commit() error                   { return u.err }
func (u failingUow) Rollback() error                 { return nil }

func (u failingUow) SessionRepository() contract.SessionRepository {
	return failingSessions{err: u.err}
}

func (u failingUow) StallRepository() contract.StallRepository {
	return failingStalls{err: u.err}
}

func (u failingUow) AvailabilityRepository() contract.AvailabilityRepository {
	return failingAvailability{err: u.err}
}

func (u failingUow) CurrentChoiceRepository() contract.CurrentChoiceRepository {
	return failingChoices{err: u.err}
}

func (u failingUow) EventRepository() contract.EventRepository {
	return failingEvents{err: u.err}
}

type failingSessions struct{ err error }

func (r failingSessions) CreateMarket(context.Context, *entity.Market) error { return r.err }
func (r failingSessions) Create(context.Context, *entity.Session) error      { return r.err }

func (r failingSessions) FindOne(context.Context, uuid.UUID) (*entity.Session, error) {
	return nil, r.err
}

func (r failingSessions) FindLatestByCode(context.Context, string) (*entity.Session, error) {
	return nil, r.err
}

type failingStalls struct{ err error }

func (r failingStalls) Create(context.Context, *entity.Stall) error { return r.err }

func (r failingStalls) FindOne(context.Context, uuid.UUID) (*entity.Stall, error) {
	return nil, r.err
}

func (r failingStalls) FindByMarket(context.Context, uuid.UUID) ([]*entity.Stall, error) {
	return nil, r.err
}

type failingAvailability struct{ err error }

func (r failingAvailability) Upsert(context.Context, uuid.UUID, uuid.UUID, bool, string) (*entity.Availability, error) {
	return nil, r.err
}

func (r failingAvailability) FindBySession(context.Context, uuid.UUID) ([]*entity.Availability, error) {
	return nil, r.err
}

type failingChoices struct{ err error }

func (r failingChoices) FindBySession(context.Context, uuid.UUID) (*entity.CurrentChoice, error) {
	return nil, r.err
}

func (r failingChoices) UpsertStall(context.Context, uuid.UUID, uuid.UUID) (*entity.CurrentChoice, error) {
	return nil, r.err
}

func (r failingChoices) UpsertRequestText(context.Context, uuid.UUID, string) (*entity.CurrentChoice, error) {
	return nil, r.err
}

type failingEvents struct{ err error }

func (r failingEvents) Create(context.Context, *entity.Event) error { return r.err }

func (r failingEvents) CountBySession(context.Context, uuid.UUID, entity.EventKind) (int64, error) {
	return 0, r.err
}

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

type recordingPublisher struct {
	mu           sync.Mutex
	availability []*entity.Availability
	choices      []*entity.CurrentChoice
	err          error
}

func (p *recordingPublisher) PublishAvailability(ctx context.Context, row *entity.Availability) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.availability = append(p.availability, row)
	return p.err
}

func (p *recordingPublisher) PublishCurrentChoice(ctx context.Context, row *entity.CurrentChoice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.choices = append(p.choices, row)
	return p.err
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

type broadcastCall struct {
	sessionId uuid.UUID
	event     string
	payload   interface{}
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
	err   error
}

func (b *recordingBroadcaster) Broadcast(sessionId uuid.UUID, event string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{sessionId: sessionId, event: event, payload: payload})
	return b.err
}

type changeCall struct {
	sessionId uuid.UUID
	frame     dto.Frame
}

// flakySink refuses the first failures calls.
type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    []changeCall
	err      error
}

func (s *flakySink) PublishChange(sessionId uuid.UUID, frame dto.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, changeCall{sessionId: sessionId, frame: frame})
	if s.failures > 0 {
		s.failures--
		return s.err
	}
	return nil
}

func (s *flakySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

const waitFor = 2 * time.Second
