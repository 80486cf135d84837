package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	decisions []string
	elapsed   []*int
	requests  []string
	errs      []error
	views     int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnView: func(View) {
			r.mu.Lock()
			r.views++
			r.mu.Unlock()
		},
		OnDecision: func(name string, elapsed *int) {
			r.mu.Lock()
			r.decisions = append(r.decisions, name)
			r.elapsed = append(r.elapsed, elapsed)
			r.mu.Unlock()
		},
		OnRequest: func(text string) {
			r.mu.Lock()
			r.requests = append(r.requests, text)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

const waitFor = time.Second

func openClient(t *testing.T, srv *fakeServer, role Role, clk clock.Clock) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := NewClient(srv, srv, srv, Options{Role: role, Clock: clk, Debounce: 100 * time.Millisecond}, rec.hooks())
	require.NoError(t, c.Open(context.Background(), "abc"))
	t.Cleanup(func() { _ = c.Close() })
	return c, rec
}

func TestClient_OpenSeedsView(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	srv.avail[f.a.Id] = f.avail(f.a, true, 1)

	c, rec := openClient(t, srv, RoleBuyer, clock.Fake(time.Unix(0, 0)))

	v := c.View()
	assert.True(t, v.Seeded)
	assert.True(t, v.IsOpen(f.a.Id))
	assert.Equal(t, "abc", v.Code())
	assert.False(t, c.Degraded())
	assert.Equal(t, 1, rec.views)
}

// Scenario A: the eater's choice reaches the buyer without a reload.
func TestClient_ChoosePropagatesToPeer(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	srv.avail[f.a.Id] = f.avail(f.a, true, 1)
	clk := clock.Fake(time.Unix(0, 0))

	buyer, buyerRec := openClient(t, srv, RoleBuyer, clk)
	eater, _ := openClient(t, srv, RoleEater, clk)

	require.NoError(t, eater.Choose(context.Background(), f.a.Id))

	require.NotNil(t, buyer.View().SelectedStallId)
	assert.Equal(t, f.a.Id, *buyer.View().SelectedStallId)
	assert.Equal(t, f.a.Id, *srv.choice.StallId)
	assert.Equal(t, []string{"Tian Tian"}, buyerRec.decisions, "broadcast and durable row announce once")
	assert.Equal(t, []entity.EventKind{entity.EventDecisionMade}, srv.eventKinds())
}

// Scenario B: two toggles inside the debounce window write once.
func TestClient_ToggleDebounced(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	clk := clock.Fake(time.Unix(0, 0))

	buyer, _ := openClient(t, srv, RoleBuyer, clk)
	eater, _ := openClient(t, srv, RoleEater, clk)

	buyer.SetOpen(f.b.Id, true)
	assert.True(t, buyer.View().IsOpen(f.b.Id))
	clk.Advance(50 * time.Millisecond)
	buyer.SetOpen(f.b.Id, false)
	assert.Empty(t, srv.availWrites[f.b.Id])

	clk.Advance(100 * time.Millisecond)

	assert.Equal(t, []bool{false}, srv.availWrites[f.b.Id])
	assert.False(t, srv.avail[f.b.Id].IsOpen)
	assert.Equal(t, string(RoleBuyer), srv.avail[f.b.Id].UpdatedBy)
	assert.False(t, buyer.View().HasPending())
	assert.False(t, eater.View().IsOpen(f.b.Id))
}

func TestClient_TogglePropagatesToPeer(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	clk := clock.Fake(time.Unix(0, 0))

	buyer, _ := openClient(t, srv, RoleBuyer, clk)
	eater, eaterRec := openClient(t, srv, RoleEater, clk)
	viewsBefore := eaterRec.views

	buyer.Toggle(f.c.Id)
	clk.Advance(100 * time.Millisecond)

	assert.True(t, eater.View().IsOpen(f.c.Id))
	assert.Greater(t, eaterRec.views, viewsBefore)
}

// Scenario C: a dish request updates the peer's text, not its selection.
func TestClient_RequestDish(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	clk := clock.Fake(time.Unix(0, 0))

	buyer, buyerRec := openClient(t, srv, RoleBuyer, clk)
	eater, _ := openClient(t, srv, RoleEater, clk)

	require.NoError(t, eater.RequestDish(context.Background(), "  duck rice "))

	v := buyer.View()
	require.NotNil(t, v.LatestRequestText)
	assert.Equal(t, "duck rice", *v.LatestRequestText)
	assert.Nil(t, v.SelectedStallId)
	assert.Equal(t, []string{"duck rice"}, buyerRec.requests)
	assert.Empty(t, buyerRec.decisions)
	assert.Equal(t, []entity.EventKind{entity.EventDishRequested}, srv.eventKinds())

	err := eater.RequestDish(context.Background(), "   ")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

// Scenario D: an unknown code loads nothing.
func TestClient_OpenUnknownCode(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	rec := &recorder{}
	c := NewClient(srv, srv, srv, Options{}, rec.hooks())

	err := c.Open(context.Background(), "ZZZZZZ")

	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Zero(t, srv.stallLoads)
	assert.Zero(t, srv.availLoads)
	assert.Zero(t, srv.subscribes)
	assert.Len(t, rec.errors(), 1)
	assert.False(t, c.View().Seeded)
}

func TestClient_DegradedWithoutFeed(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	srv.failFeed = errors.New("no websocket")

	c, rec := openClient(t, srv, RoleBuyer, clock.Fake(time.Unix(0, 0)))

	assert.True(t, c.Degraded())
	assert.True(t, c.View().Seeded)
	require.Len(t, rec.errors(), 1)
	assert.ErrorIs(t, rec.errors()[0], entity.ErrDeliveryUnavailable)

	// Resync is how a degraded client catches up.
	srv.avail[f.a.Id] = f.avail(f.a, true, 1)
	require.NoError(t, c.Resync(context.Background()))
	assert.True(t, c.View().IsOpen(f.a.Id))
	assert.True(t, c.Degraded())
	assert.Len(t, rec.errors(), 2)

	srv.failFeed = nil
	require.NoError(t, c.Resync(context.Background()))
	assert.False(t, c.Degraded())
	assert.Equal(t, 3, srv.subscribes)
	assert.Len(t, srv.subs, 1)
}

func TestClient_FailedWriteReverts(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	clk := clock.Fake(time.Unix(0, 0))
	c, rec := openClient(t, srv, RoleBuyer, clk)

	srv.mu.Lock()
	srv.failWrites = entity.ErrPersistenceFailed
	srv.mu.Unlock()

	c.SetOpen(f.a.Id, true)
	clk.Advance(100 * time.Millisecond)

	assert.False(t, c.View().IsOpen(f.a.Id))
	assert.False(t, c.View().HasPending())
	require.Len(t, rec.errors(), 1)
	assert.ErrorIs(t, rec.errors()[0], entity.ErrPersistenceFailed)

	err := c.Choose(context.Background(), f.a.Id)
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)
}

func TestClient_ChooseUnknownStall(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	c, _ := openClient(t, srv, RoleEater, clock.Fake(time.Unix(0, 0)))

	g := newFixture()
	err := c.Choose(context.Background(), g.a.Id)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.Nil(t, srv.choice)
}

func TestClient_ChooseAppliesCommittedRow(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	srv.mute = true
	c, rec := openClient(t, srv, RoleEater, clock.Fake(time.Unix(0, 0)))

	require.NoError(t, c.Choose(context.Background(), f.c.Id))

	require.NotNil(t, c.View().SelectedStallId)
	assert.Equal(t, f.c.Id, *c.View().SelectedStallId)
	assert.Equal(t, []string{"Zhen Zhen"}, rec.decisions)
}

func TestClient_DecisionStopsTimer(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	clk := clock.Fake(time.Unix(0, 0))

	buyer, buyerRec := openClient(t, srv, RoleBuyer, clk)
	eater, _ := openClient(t, srv, RoleEater, clk)

	path, err := buyer.AllChecked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/eater/abc", path)
	assert.True(t, buyer.Timer().Running())

	clk.Advance(42 * time.Second)
	require.NoError(t, eater.Choose(context.Background(), f.b.Id))

	require.Len(t, buyerRec.elapsed, 1)
	require.NotNil(t, buyerRec.elapsed[0])
	assert.Equal(t, 42, *buyerRec.elapsed[0])
	assert.False(t, buyer.Timer().Running())
	assert.Equal(t, []entity.EventKind{entity.EventAllChecked, entity.EventDecisionMade}, srv.eventKinds())
}

func TestClient_ResyncStopsTimerWhenDegraded(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	srv.failFeed = errors.New("no websocket")
	clk := clock.Fake(time.Unix(0, 0))
	buyer, rec := openClient(t, srv, RoleBuyer, clk)

	_, err := buyer.AllChecked(context.Background())
	require.NoError(t, err)
	clk.Advance(30 * time.Second)

	_, err = srv.SetChosenStall(context.Background(), f.session.Id, f.b.Id)
	require.NoError(t, err)
	require.NoError(t, buyer.Resync(context.Background()))

	assert.Equal(t, []string{"Ah Tai"}, rec.decisions)
	require.Len(t, rec.elapsed, 1)
	require.NotNil(t, rec.elapsed[0])
	assert.Equal(t, 30, *rec.elapsed[0])
	assert.False(t, buyer.Timer().Running())
}

func TestClient_DroppedSubscriptionRecoversOnResync(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	c, rec := openClient(t, srv, RoleBuyer, clock.Fake(time.Unix(0, 0)))
	require.False(t, c.Degraded())

	srv.dropAll()

	require.Eventually(t, c.Degraded, waitFor, time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.errors()) == 1 }, waitFor, time.Millisecond)
	assert.ErrorIs(t, rec.errors()[0], entity.ErrDeliveryUnavailable)

	// Missed while dropped.
	_, err := srv.SetAvailability(context.Background(), f.session.Id, f.a.Id, true, "eater")
	require.NoError(t, err)
	assert.False(t, c.View().IsOpen(f.a.Id))

	require.NoError(t, c.Resync(context.Background()))
	assert.False(t, c.Degraded())
	assert.True(t, c.View().IsOpen(f.a.Id))
	assert.Equal(t, 2, srv.subscribes)

	_, err = srv.SetAvailability(context.Background(), f.session.Id, f.b.Id, true, "eater")
	require.NoError(t, err)
	assert.True(t, c.View().IsOpen(f.b.Id))
}

func TestClient_CloseIsNotReportedAsDrop(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	rec := &recorder{}
	c := NewClient(srv, srv, srv, Options{Clock: clock.Fake(time.Unix(0, 0))}, rec.hooks())
	require.NoError(t, c.Open(context.Background(), "abc"))

	require.NoError(t, c.Close())
	time.Sleep(10 * time.Millisecond)

	assert.Empty(t, rec.errors())
	assert.False(t, c.Degraded())
}

func TestClient_CloseFlushesPendingToggle(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	rec := &recorder{}
	clk := clock.Fake(time.Unix(0, 0))
	c := NewClient(srv, srv, srv, Options{Clock: clk}, rec.hooks())
	require.NoError(t, c.Open(context.Background(), "abc"))

	c.SetOpen(f.a.Id, true)
	require.NoError(t, c.Close())

	assert.Equal(t, []bool{true}, srv.availWrites[f.a.Id])
	assert.Equal(t, 0, clk.Pending())
	assert.Empty(t, srv.subs)

	// Nothing is applied after Close.
	c.SetOpen(f.b.Id, true)
	assert.False(t, c.View().IsOpen(f.b.Id))
}

func TestClient_NotOpen(t *testing.T) {
	f := newFixture()
	srv := newFakeServer(f)
	c := NewClient(srv, srv, srv, Options{}, Hooks{})

	_, err := c.AllChecked(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, c.Resync(context.Background()), ErrNotOpen)
	assert.ErrorIs(t, c.Choose(context.Background(), f.a.Id), ErrNotOpen)
}
