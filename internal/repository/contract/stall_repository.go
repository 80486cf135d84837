package contract

import (
	"context"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

type StallRepository interface {
	Create(ctx context.Context, stall *entity.Stall) error
	FindOne(ctx context.Context, id uuid.UUID) (*entity.Stall, error)
	FindByMarket(ctx context.Context, marketId uuid.UUID) ([]*entity.Stall, error)
}
