package reconciler

import (
	"context"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

// Store is the durable state the client reads its snapshot from and writes
// to. Writes return the committed row.
type Store interface {
	Resolve(ctx context.Context, code string) (*entity.Session, error)
	ListStalls(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error)
	LoadAvailabilityRows(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error)
	LoadCurrentChoice(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error)
	SetAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, attributedTo string) (*entity.Availability, error)
	SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error)
	SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error)
}

type EventLog interface {
	Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error)
}

// Feed delivers both realtime channels of one session.
type Feed interface {
	Subscribe(ctx context.Context, sessionId uuid.UUID, handler func(dto.Frame)) (Subscription, error)
	Broadcast(ctx context.Context, sessionId uuid.UUID, event string, payload interface{}) error
}

// Subscription is one live feed registration. Done is closed when delivery
// stops, whether through Close or because the server dropped it.
type Subscription interface {
	Done() <-chan struct{}
	Close() error
}
