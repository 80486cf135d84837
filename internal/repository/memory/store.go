package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/repository/contract"
	"stallpick-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type availabilityKey struct {
	sessionId uuid.UUID
	stallId   uuid.UUID
}

// Store keeps every table in process memory. It backs the server when no
// database is configured and the service tests.
type Store struct {
	mu           sync.Mutex
	markets      map[uuid.UUID]entity.Market
	sessions     map[uuid.UUID]entity.Session
	stalls       map[uuid.UUID]entity.Stall
	availability map[availabilityKey]entity.Availability
	choices      map[uuid.UUID]entity.CurrentChoice
	events       []entity.Event
}

func NewStore() *Store {
	return &Store{
		markets:      make(map[uuid.UUID]entity.Market),
		sessions:     make(map[uuid.UUID]entity.Session),
		stalls:       make(map[uuid.UUID]entity.Stall),
		availability: make(map[availabilityKey]entity.Availability),
		choices:      make(map[uuid.UUID]entity.CurrentChoice),
	}
}

type repositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{store: store}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

// unitOfWork has no isolation: every repository call is applied immediately
// under the store lock.
type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) SessionRepository() contract.SessionRepository {
	return &sessionRepository{store: u.store}
}

func (u *unitOfWork) StallRepository() contract.StallRepository {
	return &stallRepository{store: u.store}
}

func (u *unitOfWork) AvailabilityRepository() contract.AvailabilityRepository {
	return &availabilityRepository{store: u.store}
}

func (u *unitOfWork) CurrentChoiceRepository() contract.CurrentChoiceRepository {
	return &currentChoiceRepository{store: u.store}
}

func (u *unitOfWork) EventRepository() contract.EventRepository {
	return &eventRepository{store: u.store}
}

type sessionRepository struct {
	store *Store
}

func (r *sessionRepository) CreateMarket(ctx context.Context, market *entity.Market) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if market.Id == uuid.Nil {
		market.Id = uuid.New()
	}
	if market.CreatedAt.IsZero() {
		market.CreatedAt = time.Now()
	}
	r.store.markets[market.Id] = *market
	return nil
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	r.store.sessions[session.Id] = *session
	return nil
}

func (r *sessionRepository) FindOne(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *sessionRepository) FindLatestByCode(ctx context.Context, code string) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *entity.Session
	for _, s := range r.store.sessions {
		if !strings.EqualFold(s.Code, code) {
			continue
		}
		if latest == nil || newerSession(s, *latest) {
			found := s
			latest = &found
		}
	}
	return latest, nil
}

// newerSession orders like created_at DESC, id DESC.
func newerSession(a, b entity.Session) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.Id[:], b.Id[:]) > 0
}

type stallRepository struct {
	store *Store
}

func (r *stallRepository) Create(ctx context.Context, stall *entity.Stall) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if stall.Id == uuid.Nil {
		stall.Id = uuid.New()
	}
	r.store.stalls[stall.Id] = *stall
	return nil
}

func (r *stallRepository) FindOne(ctx context.Context, id uuid.UUID) (*entity.Stall, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.stalls[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *stallRepository) FindByMarket(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stalls := make([]*entity.Stall, 0)
	for _, s := range r.store.stalls {
		if s.MarketId == marketId {
			found := s
			stalls = append(stalls, &found)
		}
	}
	sort.Slice(stalls, func(i, j int) bool {
		if stalls[i].SortOrder != stalls[j].SortOrder {
			return stalls[i].SortOrder < stalls[j].SortOrder
		}
		return stalls[i].Id.String() < stalls[j].Id.String()
	})
	return stalls, nil
}

type availabilityRepository struct {
	store *Store
}

func (r *availabilityRepository) Upsert(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, updatedBy string) (*entity.Availability, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := availabilityKey{sessionId: sessionId, stallId: stallId}
	row := r.store.availability[key]
	row.SessionId = sessionId
	row.StallId = stallId
	row.IsOpen = isOpen
	row.UpdatedBy = updatedBy
	row.Revision++
	row.UpdatedAt = time.Now()
	r.store.availability[key] = row
	return &row, nil
}

func (r *availabilityRepository) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rows := make([]*entity.Availability, 0)
	for key, row := range r.store.availability {
		if key.sessionId == sessionId {
			found := row
			rows = append(rows, &found)
		}
	}
	return rows, nil
}

type currentChoiceRepository struct {
	store *Store
}

func (r *currentChoiceRepository) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.choices[sessionId]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *currentChoiceRepository) UpsertStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	return r.update(sessionId, func(row *entity.CurrentChoice) {
		id := stallId
		row.StallId = &id
	})
}

func (r *currentChoiceRepository) UpsertRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	return r.update(sessionId, func(row *entity.CurrentChoice) {
		t := text
		row.RequestText = &t
	})
}

func (r *currentChoiceRepository) update(sessionId uuid.UUID, set func(*entity.CurrentChoice)) (*entity.CurrentChoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row := r.store.choices[sessionId]
	row.SessionId = sessionId
	set(&row)
	row.Revision++
	row.UpdatedAt = time.Now()
	r.store.choices[sessionId] = row
	return &row, nil
}

type eventRepository struct {
	store *Store
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.store.events = append(r.store.events, *event)
	return nil
}

func (r *eventRepository) CountBySession(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, e := range r.store.events {
		if e.SessionId == sessionId && (kind == "" || e.Kind == kind) {
			count++
		}
	}
	return count, nil
}
