package service

import (
	"context"
	"fmt"
	"time"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/unitofwork"
	"stallpick-be/pkg/events"

	"github.com/google/uuid"
)

type IEventLog interface {
	Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error)
	Count(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind) (int64, error)
}

// AnalyticsSink is a best-effort downstream copy of the event log.
type AnalyticsSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type eventLog struct {
	uowFactory unitofwork.RepositoryFactory
	sinks      []AnalyticsSink
	logger     logger.ILogger
}

func NewEventLog(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, sinks ...AnalyticsSink) IEventLog {
	return &eventLog{
		uowFactory: uowFactory,
		sinks:      sinks,
		logger:     log,
	}
}

func (l *eventLog) Append(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind, meta map[string]interface{}) (*entity.Event, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("append %q: %w: %w", kind, entity.ErrLogAppendFailed, entity.ErrInvalidInput)
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}

	event := &entity.Event{
		Id:        uuid.New(),
		SessionId: sessionId,
		Kind:      kind,
		Meta:      meta,
		CreatedAt: time.Now(),
	}

	uow := l.uowFactory.NewUnitOfWork(ctx)
	if err := uow.EventRepository().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("append %s: %w: %w", kind, entity.ErrLogAppendFailed, err)
	}

	out := events.SessionEvent{
		Id:         event.Id,
		SessionId:  sessionId,
		Kind:       string(kind),
		Meta:       meta,
		OccurredAt: event.CreatedAt,
	}
	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, out); err != nil {
			l.logger.Warn("EventLog", "Analytics sink publish failed", map[string]interface{}{
				"event_id": event.Id.String(),
				"kind":     string(kind),
				"error":    err.Error(),
			})
		}
	}

	return event, nil
}

func (l *eventLog) Count(ctx context.Context, sessionId uuid.UUID, kind entity.EventKind) (int64, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	n, err := uow.EventRepository().CountBySession(ctx, sessionId, kind)
	if err != nil {
		return 0, persistenceError("count events", err)
	}
	return n, nil
}
