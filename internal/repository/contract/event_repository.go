package contract

import (
	"context"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

// EventRepository is insert-only.
type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	CountBySession(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind) (int64, error)
}
