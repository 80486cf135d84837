package unitofwork

import (
	"context"

	"stallpick-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	StallRepository() contract.StallRepository
	AvailabilityRepository() contract.AvailabilityRepository
	CurrentChoiceRepository() contract.CurrentChoiceRepository
	EventRepository() contract.EventRepository
}
