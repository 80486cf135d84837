package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel    = "session_events"
	DefaultBufferSize = 256
)

// Hub fans frames out to the subscribers of one session. Other instances
// are reached through a redis channel; frames coming back from redis that
// this instance published itself are skipped.
type Hub struct {
	// SessionID -> set of subscribers
	sessions map[uuid.UUID]map[*Client]struct{}
	mu       sync.RWMutex

	rdb        *redis.Client
	channel    string
	instanceId string
	bufferSize int

	logger logger.ILogger
}

type relayEnvelope struct {
	Origin    string          `json:"origin"`
	SessionId uuid.UUID       `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// NewHub builds a hub. rdb may be nil for a single-instance deployment.
func NewHub(rdb *redis.Client, bufferSize int, log logger.ILogger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		sessions:   make(map[uuid.UUID]map[*Client]struct{}),
		rdb:        rdb,
		channel:    DefaultChannel,
		instanceId: uuid.NewString(),
		bufferSize: bufferSize,
		logger:     log,
	}
}

// Run relays frames published by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instanceId {
				continue
			}
			h.deliverLocal(env.SessionId, env.Message)
		}
	}
}

// Subscribe registers a new subscriber for sessionId. Frames published
// after Subscribe returns are delivered to it.
func (h *Hub) Subscribe(sessionId uuid.UUID) *Client {
	client := &Client{
		Hub:       h,
		SessionID: sessionId,
		Send:      make(chan []byte, h.bufferSize),
	}

	h.mu.Lock()
	subs, ok := h.sessions[sessionId]
	if !ok {
		subs = make(map[*Client]struct{})
		h.sessions[sessionId] = subs
	}
	subs[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Hub", "Client subscribed", map[string]interface{}{"session_id": sessionId.String()})
	return client
}

// Unsubscribe removes client and closes its Send channel. Calling it more
// than once is harmless.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.sessions[client.SessionID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.Send)
	if len(subs) == 0 {
		delete(h.sessions, client.SessionID)
		h.logger.Info("Hub", "Last client left session", map[string]interface{}{"session_id": client.SessionID.String()})
	}
}

func (h *Hub) SubscriberCount(sessionId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionId])
}

// PublishChange delivers a durable-change frame.
func (h *Hub) PublishChange(sessionId uuid.UUID, frame dto.Frame) error {
	return h.publish(sessionId, frame)
}

// Broadcast delivers an ephemeral signal. Nothing is stored; subscribers
// that are not connected right now never see it.
func (h *Hub) Broadcast(sessionId uuid.UUID, event string, payload interface{}) error {
	frame, err := dto.NewBroadcastFrame(event, payload)
	if err != nil {
		return err
	}
	return h.publish(sessionId, frame)
}

func (h *Hub) publish(sessionId uuid.UUID, frame dto.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.deliverLocal(sessionId, data)

	if h.rdb == nil {
		return nil
	}
	env, err := json.Marshal(relayEnvelope{Origin: h.instanceId, SessionId: sessionId, Message: data})
	if err != nil {
		return err
	}
	if err := h.rdb.Publish(context.Background(), h.channel, env).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return fmt.Errorf("relay frame: %w: %w", entity.ErrDeliveryUnavailable, err)
	}
	return nil
}

func (h *Hub) deliverLocal(sessionId uuid.UUID, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.sessions[sessionId] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping subscriber", map[string]interface{}{
			"session_id": sessionId.String(),
		})
		h.Unsubscribe(client)
	}
}
