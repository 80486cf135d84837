package contract

import (
	"context"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	// Upsert writes the flag and returns the committed row.
	Upsert(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, updatedBy string) (*entity.Availability, error)
	FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Availability, error)
}

// CurrentChoiceRepository upserts each field independently. Neither write
// touches the other column.
type CurrentChoiceRepository interface {
	FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CurrentChoice, error)
	UpsertStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error)
	UpsertRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error)
}
