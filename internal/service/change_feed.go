package service

import (
	"context"
	"encoding/json"
	"fmt"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const ChangesTopic = "state.changes"

// maxDeliveryAttempts bounds redelivery of one change to the hub.
const maxDeliveryAttempts = 3

type ChangeMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	Frame     dto.Frame `json:"frame"`
}

// ChangeFeed publishes committed rows onto the in-process change topic.
type ChangeFeed struct {
	publisher message.Publisher
	topic     string
}

func NewChangeFeed(publisher message.Publisher, topic string) *ChangeFeed {
	if topic == "" {
		topic = ChangesTopic
	}
	return &ChangeFeed{publisher: publisher, topic: topic}
}

func (f *ChangeFeed) PublishAvailability(ctx context.Context, row *entity.Availability) error {
	frame, err := dto.NewChangeFrame(dto.TableAvailability, mapper.AvailabilityToRow(row))
	if err != nil {
		return err
	}
	return f.publish(ctx, row.SessionId, frame)
}

func (f *ChangeFeed) PublishCurrentChoice(ctx context.Context, row *entity.CurrentChoice) error {
	frame, err := dto.NewChangeFrame(dto.TableCurrentChoice, mapper.CurrentChoiceToRow(row))
	if err != nil {
		return err
	}
	return f.publish(ctx, row.SessionId, frame)
}

func (f *ChangeFeed) publish(ctx context.Context, sessionId uuid.UUID, frame dto.Frame) error {
	payload, err := json.Marshal(ChangeMessage{SessionId: sessionId, Frame: frame})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := f.publisher.Publish(f.topic, msg); err != nil {
		return fmt.Errorf("publish change: %w: %w", entity.ErrDeliveryUnavailable, err)
	}
	return nil
}

// ChangeSink is where relayed changes end up, normally the websocket hub.
type ChangeSink interface {
	PublishChange(sessionId uuid.UUID, frame dto.Frame) error
}

type ChangeRelay struct {
	subscriber message.Subscriber
	topic      string
	sink       ChangeSink
	logger     logger.ILogger
	attempts   map[string]int
}

func NewChangeRelay(subscriber message.Subscriber, topic string, sink ChangeSink, log logger.ILogger) *ChangeRelay {
	if topic == "" {
		topic = ChangesTopic
	}
	return &ChangeRelay{
		subscriber: subscriber,
		topic:      topic,
		sink:       sink,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

// Start subscribes and relays until ctx is cancelled.
func (r *ChangeRelay) Start(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			r.process(msg)
		}
	}()
	return nil
}

func (r *ChangeRelay) process(msg *message.Message) {
	var change ChangeMessage
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		r.logger.Error("ChangeRelay", "Dropping malformed change message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	err := r.sink.PublishChange(change.SessionId, change.Frame)
	if err == nil {
		delete(r.attempts, msg.UUID)
		msg.Ack()
		return
	}

	attempt := r.attempts[msg.UUID] + 1
	r.logger.Warn("ChangeRelay", "Change delivery failed", map[string]interface{}{
		"session_id": change.SessionId.String(),
		"table":      change.Frame.Table,
		"attempt":    attempt,
		"error":      err.Error(),
	})
	if attempt >= maxDeliveryAttempts {
		delete(r.attempts, msg.UUID)
		msg.Ack()
		return
	}
	r.attempts[msg.UUID] = attempt
	msg.Nack()
}
