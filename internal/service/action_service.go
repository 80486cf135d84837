package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Broadcaster sends ephemeral, never persisted signals to a session.
type Broadcaster interface {
	Broadcast(sessionId uuid.UUID, event string, payload interface{}) error
}

type IActionService interface {
	ChooseStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error)
	RequestDish(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error)
	MarkAllChecked(ctx context.Context, sessionId uuid.UUID) (string, error)
	ToggleAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, by string) (*entity.Availability, error)
	SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error)
	SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error)
}

type actionService struct {
	uowFactory  unitofwork.RepositoryFactory
	store       IStateStore
	eventLog    IEventLog
	broadcaster Broadcaster
	logger      logger.ILogger
}

func NewActionService(uowFactory unitofwork.RepositoryFactory, store IStateStore, eventLog IEventLog, broadcaster Broadcaster, log logger.ILogger) IActionService {
	return &actionService{
		uowFactory:  uowFactory,
		store:       store,
		eventLog:    eventLog,
		broadcaster: broadcaster,
		logger:      log,
	}
}

func (s *actionService) findSession(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, sessionId)
	if err != nil {
		return nil, persistenceError("find session", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionId, entity.ErrNotFound)
	}
	return session, nil
}

// findStall loads the session and a stall of its market.
func (s *actionService) findStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.Stall, error) {
	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stall, err := uow.StallRepository().FindOne(ctx, stallId)
	if err != nil {
		return nil, persistenceError("find stall", err)
	}
	if stall == nil || stall.MarketId != session.MarketId {
		return nil, fmt.Errorf("stall %s is not part of this market: %w", stallId, entity.ErrInvalidInput)
	}
	return stall, nil
}

func (s *actionService) ChooseStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	stall, err := s.findStall(ctx, sessionId, stallId)
	if err != nil {
		return nil, err
	}

	id := stall.Id
	return s.fanOut(ctx, sessionId, entity.EventDecisionMade,
		map[string]interface{}{"stall_id": stall.Id.String(), "stall_name": stall.Name},
		dto.DecisionPayload{StallId: &id, StallName: stall.Name},
		func() (*entity.CurrentChoice, error) {
			return s.store.SetChosenStall(ctx, sessionId, stall.Id)
		},
	)
}

func (s *actionService) RequestDish(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("dish request text is empty: %w", entity.ErrInvalidInput)
	}
	if _, err := s.findSession(ctx, sessionId); err != nil {
		return nil, err
	}

	return s.fanOut(ctx, sessionId, entity.EventDishRequested,
		map[string]interface{}{"text": text},
		dto.DishRequestPayload{Text: text},
		func() (*entity.CurrentChoice, error) {
			return s.store.SetRequestText(ctx, sessionId, text)
		},
	)
}

// fanOut runs the durable write, the log append and the broadcast
// concurrently. Only the durable write can fail the action.
func (s *actionService) fanOut(
	ctx context.Context,
	sessionId uuid.UUID,
	kind entity.EventKind,
	meta map[string]interface{},
	payload interface{},
	write func() (*entity.CurrentChoice, error),
) (*entity.CurrentChoice, error) {
	var (
		wg       sync.WaitGroup
		row      *entity.CurrentChoice
		writeErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		row, writeErr = write()
	}()
	go func() {
		defer wg.Done()
		if _, err := s.eventLog.Append(ctx, sessionId, kind, meta); err != nil {
			s.logger.Warn("ActionService", "Event log append failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"kind":       string(kind),
				"error":      err.Error(),
			})
		}
	}()
	go func() {
		defer wg.Done()
		if s.broadcaster == nil {
			return
		}
		if err := s.broadcaster.Broadcast(sessionId, string(kind), payload); err != nil {
			s.logger.Warn("ActionService", "Broadcast failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"event":      string(kind),
				"error":      err.Error(),
			})
		}
	}()
	wg.Wait()

	if writeErr != nil {
		return nil, writeErr
	}
	return row, nil
}

func (s *actionService) MarkAllChecked(ctx context.Context, sessionId uuid.UUID) (string, error) {
	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return "", err
	}

	if _, err := s.eventLog.Append(ctx, sessionId, entity.EventAllChecked, nil); err != nil {
		s.logger.Warn("ActionService", "Event log append failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"kind":       string(entity.EventAllChecked),
			"error":      err.Error(),
		})
	}
	return "/eater/" + session.Code, nil
}

func (s *actionService) ToggleAvailability(ctx context.Context, sessionId, stallId uuid.UUID, isOpen bool, by string) (*entity.Availability, error) {
	if _, err := s.findStall(ctx, sessionId, stallId); err != nil {
		return nil, err
	}
	if by == "" {
		by = UpdatedByBuyer
	}
	return s.store.SetAvailability(ctx, sessionId, stallId, isOpen, by)
}

// SetChosenStall is the durable write alone, with no event or broadcast.
func (s *actionService) SetChosenStall(ctx context.Context, sessionId, stallId uuid.UUID) (*entity.CurrentChoice, error) {
	if _, err := s.findStall(ctx, sessionId, stallId); err != nil {
		return nil, err
	}
	return s.store.SetChosenStall(ctx, sessionId, stallId)
}

func (s *actionService) SetRequestText(ctx context.Context, sessionId uuid.UUID, text string) (*entity.CurrentChoice, error) {
	if _, err := s.findSession(ctx, sessionId); err != nil {
		return nil, err
	}
	return s.store.SetRequestText(ctx, sessionId, text)
}
