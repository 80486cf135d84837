package remote

import (
	"context"
	"encoding/json"
	"sync"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/reconciler"
	"stallpick-be/internal/service"
	"stallpick-be/internal/websocket"

	"github.com/google/uuid"
)

// Local serves a reconciler.Client from services running in the same
// process.
type Local struct {
	resolver service.ISessionResolver
	store    service.IStateStore
	eventLog service.IEventLog
	hub      *websocket.Hub
}

func NewLocal(resolver service.ISessionResolver, store service.IStateStore, eventLog service.IEventLog, hub *websocket.Hub) *Local {
	return &Local{resolver: resolver, store: store, eventLog: eventLog, hub: hub}
}

func (l *Local) Resolve(ctx context.Context, code string) (*entity.Session, error) {
	return l.resolver.Resolve(ctx, code)
}

func (l *Local) ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error) {
	return l.resolver.ListStalls(ctx, marketId)
}

func (l *Local) LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error) {
	return l.store.LoadAvailabilityRows(ctx, sessionId)
}

func (l *Local) LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error) {
	return l.store.LoadCurrentChoice(ctx, sessionId)
}

func (l *Local) SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error) {
	return l.store.SetAvailability(ctx, sessionId, stallId, isOpen, attributedTo)
}

func (l *Local) SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	return l.store.SetChosenStall(ctx, sessionId, stallId)
}

func (l *Local) SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	return l.store.SetRequestText(ctx, sessionId, text)
}

func (l *Local) Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error) {
	return l.eventLog.Append(ctx, sessionId, kind, meta)
}

type localSubscription struct {
	hub    *websocket.Hub
	client *websocket.Client
	done   chan struct{}
	once   sync.Once
}

// Subscribe hands frames to handler on one goroutine, in hub order.
func (l *Local) Subscribe(ctx context.Context, sessionId uuid.UUID, handler func(dto.Frame)) (reconciler.Subscription, error) {
	client := l.hub.Subscribe(sessionId)
	sub := &localSubscription{hub: l.hub, client: client, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for data := range client.Send {
			var frame dto.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			handler(frame)
		}
	}()
	return sub, nil
}

func (l *Local) Broadcast(ctx context.Context, sessionId uuid.UUID, event string, payload interface{}) error {
	return l.hub.Broadcast(sessionId, event, payload)
}

// Done is closed once the hub stops delivering, including when it drops a
// subscriber that fell behind.
func (s *localSubscription) Done() <-chan struct{} {
	return s.done
}

func (s *localSubscription) Close() error {
	s.once.Do(func() {
		s.hub.Unsubscribe(s.client)
	})
	<-s.done
	return nil
}
