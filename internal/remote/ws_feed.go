package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/reconciler"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WSFeed subscribes over the server's websocket endpoint and broadcasts
// through the REST API.
type WSFeed struct {
	store  *HTTPStore
	dialer *websocket.Dialer
}

func NewWSFeed(store *HTTPStore) *WSFeed {
	return &WSFeed{store: store, dialer: websocket.DefaultDialer}
}

func (f *WSFeed) wsURL(sessionId uuid.UUID) string {
	base := f.store.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/sessions/" + sessionId.String() + "/ws"
}

type wsSubscription struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (f *WSFeed) Subscribe(ctx context.Context, sessionId uuid.UUID, handler func(dto.Frame)) (reconciler.Subscription, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.wsURL(sessionId), nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w: %w", entity.ErrDeliveryUnavailable, err)
	}

	sub := &wsSubscription{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame dto.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			handler(frame)
		}
	}()
	return sub, nil
}

// Done is closed when the server side goes away.
func (s *wsSubscription) Done() <-chan struct{} {
	return s.done
}

func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	<-s.done
	return err
}

func (f *WSFeed) Broadcast(ctx context.Context, sessionId uuid.UUID, event string, payload interface{}) error {
	body := struct {
		Event   string      `json:"event"`
		Payload interface{} `json:"payload"`
	}{Event: event, Payload: payload}

	if _, err := call[any](ctx, f.store, fiber.MethodPost, "/sessions/"+sessionId.String()+"/broadcast", body); err != nil {
		return fmt.Errorf("broadcast %s: %w: %w", event, entity.ErrDeliveryUnavailable, err)
	}
	return nil
}
