package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"

	"github.com/google/uuid"
)

// fakeServer is a synchronous Store, EventLog and Feed. Unless muted, every
// committed write and broadcast reaches subscribers before the call returns.
type fakeServer struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	stalls   []*entity.Stall
	avail    map[uuid.UUID]*entity.Availability
	choice   *entity.CurrentChoice
	events   []*entity.Event
	subs     map[int]*fakeSubscription
	nextSub  int

	availWrites map[uuid.UUID][]bool
	stallLoads  int
	availLoads  int
	subscribes  int
	failWrites  error
	failFeed    error
	mute        bool
}

func newFakeServer(f fixture) *fakeServer {
	return &fakeServer{
		sessions:    map[string]*entity.Session{f.session.Code: f.session},
		stalls:      f.stalls(),
		avail:       make(map[uuid.UUID]*entity.Availability),
		subs:        make(map[int]*fakeSubscription),
		availWrites: make(map[uuid.UUID][]bool),
	}
}

func (s *fakeServer) Resolve(ctx context.Context, code string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[code]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", code, entity.ErrNotFound)
	}
	return session, nil
}

func (s *fakeServer) ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stallLoads++
	return s.stalls, nil
}

func (s *fakeServer) LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availLoads++
	rows := make([]*entity.Availability, 0, len(s.avail))
	for _, row := range s.avail {
		cp := *row
		rows = append(rows, &cp)
	}
	return rows, nil
}

func (s *fakeServer) LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.choice == nil {
		return &entity.CurrentChoice{SessionId: sessionId}, nil
	}
	cp := *s.choice
	return &cp, nil
}

func (s *fakeServer) SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error) {
	s.mu.Lock()
	s.availWrites[stallId] = append(s.availWrites[stallId], isOpen)
	if s.failWrites != nil {
		s.mu.Unlock()
		return nil, s.failWrites
	}
	row, ok := s.avail[stallId]
	if !ok {
		row = &entity.Availability{SessionId: sessionId, StallId: stallId}
		s.avail[stallId] = row
	}
	row.IsOpen = isOpen
	row.UpdatedBy = attributedTo
	row.Revision++
	row.UpdatedAt = time.Now()
	cp := *row
	s.mu.Unlock()

	s.push(dto.TableAvailability, mapper.AvailabilityToRow(&cp))
	return &cp, nil
}

func (s *fakeServer) SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	return s.writeChoice(sessionId, func(c *entity.CurrentChoice) { c.StallId = &stallId })
}

func (s *fakeServer) SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	return s.writeChoice(sessionId, func(c *entity.CurrentChoice) { c.RequestText = &text })
}

func (s *fakeServer) writeChoice(sessionId uuid.UUID, set func(*entity.CurrentChoice)) (*entity.CurrentChoice, error) {
	s.mu.Lock()
	if s.failWrites != nil {
		s.mu.Unlock()
		return nil, s.failWrites
	}
	if s.choice == nil {
		s.choice = &entity.CurrentChoice{SessionId: sessionId}
	}
	set(s.choice)
	s.choice.Revision++
	cp := *s.choice
	s.mu.Unlock()

	s.push(dto.TableCurrentChoice, mapper.CurrentChoiceToRow(&cp))
	return &cp, nil
}

func (s *fakeServer) Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entity.Event{Id: uuid.New(), SessionId: sessionId, Kind: kind, Meta: meta, CreatedAt: time.Now()}
	s.events = append(s.events, e)
	return e, nil
}

func (s *fakeServer) eventKinds() []entity.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeSubscription struct {
	server  *fakeServer
	id      int
	handler func(dto.Frame)
	done    chan struct{}
	once    sync.Once
}

func (f *fakeSubscription) Done() <-chan struct{} {
	return f.done
}

func (f *fakeSubscription) Close() error {
	f.server.mu.Lock()
	defer f.server.mu.Unlock()
	f.end()
	return nil
}

// end must be called with server.mu held.
func (f *fakeSubscription) end() {
	delete(f.server.subs, f.id)
	f.once.Do(func() { close(f.done) })
}

// dropAll ends every subscription from the server side, as a hub does with
// a subscriber that fell behind.
func (s *fakeServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.end()
	}
}

func (s *fakeServer) Subscribe(ctx context.Context, sessionId uuid.UUID, handler func(dto.Frame)) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	if s.failFeed != nil {
		return nil, s.failFeed
	}
	s.nextSub++
	sub := &fakeSubscription{server: s, id: s.nextSub, handler: handler, done: make(chan struct{})}
	s.subs[sub.id] = sub
	return sub, nil
}

func (s *fakeServer) Broadcast(ctx context.Context, sessionId uuid.UUID, event string, payload interface{}) error {
	if s.failFeed != nil {
		return errors.New("feed down")
	}
	frame, err := dto.NewBroadcastFrame(event, payload)
	if err != nil {
		return err
	}
	s.deliver(frame)
	return nil
}

func (s *fakeServer) push(table string, row interface{}) {
	frame, err := dto.NewChangeFrame(table, row)
	if err != nil {
		panic(err)
	}
	s.deliver(frame)
}

func (s *fakeServer) deliver(frame dto.Frame) {
	s.mu.Lock()
	if s.mute {
		s.mu.Unlock()
		return
	}
	handlers := make([]func(dto.Frame), 0, len(s.subs))
	for _, sub := range s.subs {
		handlers = append(handlers, sub.handler)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(frame)
	}
}
