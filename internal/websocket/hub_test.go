package websocket

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) dto.Frame {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var frame dto.Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return dto.Frame{}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected frame %s", data)
	default:
	}
}

func TestHub_DeliveryStaysInSession(t *testing.T) {
	hub := NewHub(nil, 8, logger.NewNopLogger())
	x, y := uuid.New(), uuid.New()

	x1 := hub.Subscribe(x)
	x2 := hub.Subscribe(x)
	y1 := hub.Subscribe(y)

	frame, err := dto.NewChangeFrame(dto.TableAvailability, dto.AvailabilityRow{SessionId: x, Revision: 1})
	require.NoError(t, err)
	require.NoError(t, hub.PublishChange(x, frame))

	for _, c := range []*Client{x1, x2} {
		got := receive(t, c)
		assert.Equal(t, dto.FrameChange, got.Type)
		assert.Equal(t, dto.TableAvailability, got.Table)
	}
	assertNothing(t, y1)
	assert.Equal(t, 2, hub.SubscriberCount(x))
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil, 8, logger.NewNopLogger())
	sessionId := uuid.New()
	c := hub.Subscribe(sessionId)

	require.NoError(t, hub.Broadcast(sessionId, "dish_requested", dto.DishRequestPayload{Text: "duck rice"}))

	got := receive(t, c)
	assert.Equal(t, dto.FrameBroadcast, got.Type)
	assert.Equal(t, "dish_requested", got.Event)
	assert.JSONEq(t, `{"text":"duck rice"}`, string(got.Payload))
}

func TestHub_BroadcastWithoutSubscribersIsLost(t *testing.T) {
	hub := NewHub(nil, 8, logger.NewNopLogger())
	sessionId := uuid.New()

	require.NoError(t, hub.Broadcast(sessionId, "decision_made", dto.DecisionPayload{StallName: "Ah Tai"}))

	late := hub.Subscribe(sessionId)
	assertNothing(t, late)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil, 8, logger.NewNopLogger())
	sessionId := uuid.New()
	c := hub.Subscribe(sessionId)

	hub.Unsubscribe(c)
	hub.Unsubscribe(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, hub.SubscriberCount(sessionId))
	require.NoError(t, hub.Broadcast(sessionId, "decision_made", map[string]string{}))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil, 1, logger.NewNopLogger())
	sessionId := uuid.New()
	slow := hub.Subscribe(sessionId)
	fast := hub.Subscribe(sessionId)

	require.NoError(t, hub.Broadcast(sessionId, "dish_requested", dto.DishRequestPayload{Text: "one"}))
	receive(t, fast)
	require.NoError(t, hub.Broadcast(sessionId, "dish_requested", dto.DishRequestPayload{Text: "two"}))

	assert.Equal(t, 1, hub.SubscriberCount(sessionId))
	// The slow client keeps what was already buffered, then sees the close.
	receive(t, slow)
	_, ok := <-slow.Send
	assert.False(t, ok)
	assert.JSONEq(t, `{"text":"two"}`, string(receive(t, fast).Payload))
}

func TestClient_InboundOnlyRelaysPeerBroadcasts(t *testing.T) {
	hub := NewHub(nil, 8, logger.NewNopLogger())
	sessionId := uuid.New()
	sender := hub.Subscribe(sessionId)
	peer := hub.Subscribe(sessionId)

	sender.handleInbound([]byte(`not json`))
	sender.handleInbound([]byte(`{"type":"change","table":"availability","op":"upsert","row":{}}`))
	sender.handleInbound([]byte(`{"type":"broadcast","event":"all_checked","payload":{}}`))
	assertNothing(t, peer)

	sender.handleInbound([]byte(`{"type":"broadcast","event":"decision_made","payload":{"stall_name":"Ah Tai"}}`))
	got := receive(t, peer)
	assert.Equal(t, "decision_made", got.Event)
	assert.JSONEq(t, `{"stall_name":"Ah Tai"}`, string(got.Payload))
}

func TestHub_RelaysAcrossInstances(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis relay test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewHub(rdb, 8, logger.NewNopLogger())
	b := NewHub(rdb, 8, logger.NewNopLogger())
	go a.Run(ctx)
	go b.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	sessionId := uuid.New()
	onA := a.Subscribe(sessionId)
	onB := b.Subscribe(sessionId)

	require.NoError(t, a.Broadcast(sessionId, "dish_requested", dto.DishRequestPayload{Text: "laksa"}))

	assert.Equal(t, "dish_requested", receive(t, onA).Event)
	assert.Equal(t, "dish_requested", receive(t, onB).Event)
	time.Sleep(100 * time.Millisecond)
	assertNothing(t, onA)
}
