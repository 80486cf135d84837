package contract

import (
	"context"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

type SessionRepository interface {
	CreateMarket(ctx context.Context, market *entity.Market) error
	Create(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	// FindLatestByCode compares codes case-insensitively and returns the most
	// recently created match, or nil when there is none.
	FindLatestByCode(ctx context.Context, code string) (*entity.Session, error)
}
