package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/pkg/clock"
	"stallpick-be/internal/pkg/logger"

	"github.com/google/uuid"
)

var ErrNotOpen = errors.New("client is not open")

type Options struct {
	Role     Role
	Clock    clock.Clock
	Debounce time.Duration
	Logger   logger.ILogger
}

// Hooks run outside the client lock, on whichever goroutine delivered the
// signal.
type Hooks struct {
	OnView     func(View)
	OnDecision func(stallName string, elapsedSeconds *int)
	OnRequest  func(text string)
	OnError    func(error)
}

// Client binds a View to a store, an event log and a feed. Every signal,
// local or remote, goes through Dispatch and is applied one at a time.
type Client struct {
	store  Store
	events EventLog
	feed   Feed
	opts   Options
	hooks  Hooks
	logger logger.ILogger

	debouncer *Debouncer
	timer     *DecisionTimer

	mu       sync.Mutex
	view     View
	ctx      context.Context
	sub      Subscription
	degraded bool
	closed   bool
}

func NewClient(store Store, events EventLog, feed Feed, opts Options, hooks Hooks) *Client {
	if opts.Role == "" {
		opts.Role = RoleBuyer
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		store:     store,
		events:    events,
		feed:      feed,
		opts:      opts,
		hooks:     hooks,
		logger:    log,
		debouncer: NewDebouncer(opts.Clock, opts.Debounce),
		timer:     NewDecisionTimer(opts.Clock),
		ctx:       context.Background(),
	}
}

func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Client) Role() Role {
	return c.opts.Role
}

// Degraded is true when the realtime subscription could not be set up and
// the client only converges through Resync.
func (c *Client) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

func (c *Client) Timer() *DecisionTimer {
	return c.timer
}

// Open resolves code, subscribes to the session feed and seeds the view.
// Notifications that arrive before the snapshot are held back until it has
// been applied. An unknown code fails before anything else is loaded.
func (c *Client) Open(ctx context.Context, code string) error {
	session, err := c.store.Resolve(ctx, code)
	if err != nil {
		c.reportError(err)
		return err
	}

	c.mu.Lock()
	// Writes already issued must be allowed to finish after Close.
	c.ctx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	c.subscribe(ctx, session.Id)

	snap, err := c.loadSnapshot(ctx, session)
	if err != nil {
		c.reportError(err)
		return err
	}
	c.Dispatch(snap)
	return nil
}

func (c *Client) loadSnapshot(ctx context.Context, session *entity.Session) (Snapshot, error) {
	stalls, err := c.store.ListStalls(ctx, session.MarketId)
	if err != nil {
		return Snapshot{}, err
	}
	rows, err := c.store.LoadAvailabilityRows(ctx, session.Id)
	if err != nil {
		return Snapshot{}, err
	}
	choice, err := c.store.LoadCurrentChoice(ctx, session.Id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Session: session, Stalls: stalls, Availability: rows, Choice: choice}, nil
}

// subscribe attaches the feed. On failure the client is marked degraded and
// keeps working from snapshots alone.
func (c *Client) subscribe(ctx context.Context, sessionId uuid.UUID) {
	if c.feed == nil {
		return
	}

	sub, err := c.feed.Subscribe(ctx, sessionId, c.handleFrame)
	c.mu.Lock()
	closed := c.closed
	switch {
	case err != nil:
		c.degraded = true
	case !closed:
		c.sub = sub
		c.degraded = false
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Reconciler", "Realtime subscribe failed, continuing without it", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		c.reportError(fmt.Errorf("subscribe: %w: %w", entity.ErrDeliveryUnavailable, err))
		return
	}
	if closed {
		_ = sub.Close()
		return
	}
	go c.watch(sessionId, sub)
}

// watch marks the client degraded when sub ends without Close being called.
// Notifications missed from then on only come back through Resync.
func (c *Client) watch(sessionId uuid.UUID, sub Subscription) {
	<-sub.Done()

	c.mu.Lock()
	dropped := c.sub == sub && !c.closed
	if dropped {
		c.sub = nil
		c.degraded = true
	}
	c.mu.Unlock()
	if !dropped {
		return
	}

	c.logger.Warn("Reconciler", "Realtime subscription dropped", map[string]interface{}{
		"session_id": sessionId.String(),
	})
	_ = sub.Close()
	c.reportError(fmt.Errorf("subscription dropped: %w", entity.ErrDeliveryUnavailable))
}

// Resync reloads the snapshot. A degraded client first tries to subscribe
// again so that notifications after the snapshot are not missed.
func (c *Client) Resync(ctx context.Context) error {
	session := c.View().Session
	if session == nil {
		return ErrNotOpen
	}

	c.mu.Lock()
	retry := c.degraded && !c.closed
	c.mu.Unlock()
	if retry {
		c.subscribe(ctx, session.Id)
	}

	snap, err := c.loadSnapshot(ctx, session)
	if err != nil {
		c.reportError(err)
		return err
	}
	c.Dispatch(snap)
	return nil
}

// Dispatch applies one signal and carries out its effects.
func (c *Client) Dispatch(sig Signal) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	next, effects := Apply(c.view, sig)
	c.view = next

	var calls []func()
	for _, e := range effects {
		switch eff := e.(type) {
		case ScheduleWrite:
			stallId := eff.StallId
			c.debouncer.Schedule(stallId, func() { c.flush(stallId) })
		case Render:
			if c.hooks.OnView != nil {
				view := next
				calls = append(calls, func() { c.hooks.OnView(view) })
			}
		case Decision:
			var elapsed *int
			if secs, ok := c.timer.Stop(); ok {
				elapsed = &secs
			}
			if c.hooks.OnDecision != nil {
				name := eff.StallName
				calls = append(calls, func() { c.hooks.OnDecision(name, elapsed) })
			}
		case DishRequest:
			if c.hooks.OnRequest != nil {
				text := eff.Text
				calls = append(calls, func() { c.hooks.OnRequest(text) })
			}
		case Failure:
			if c.hooks.OnError != nil {
				err := eff.Err
				calls = append(calls, func() { c.hooks.OnError(err) })
			}
		}
	}
	c.mu.Unlock()

	for _, call := range calls {
		call()
	}
}

func (c *Client) flush(stallId uuid.UUID) {
	c.mu.Lock()
	session := c.view.Session
	value, ok := c.view.PendingValue(stallId)
	ctx := c.ctx
	c.mu.Unlock()
	if !ok || session == nil {
		return
	}

	row, err := c.store.SetAvailability(ctx, session.Id, stallId, value, string(c.opts.Role))
	if err != nil {
		c.logger.Error("Reconciler", "Availability write failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"stall_id":   stallId.String(),
			"error":      err.Error(),
		})
	}
	c.Dispatch(TogglePersisted{StallId: stallId, IsOpen: value, Row: row, Err: err})
}

// SetOpen updates the view at once and writes after the debounce window.
func (c *Client) SetOpen(stallId uuid.UUID, isOpen bool) {
	c.Dispatch(LocalToggle{StallId: stallId, IsOpen: isOpen})
}

func (c *Client) Toggle(stallId uuid.UUID) {
	c.mu.Lock()
	current := c.view.IsOpen(stallId)
	c.mu.Unlock()
	c.SetOpen(stallId, !current)
}

// Choose records the eater's decision. The durable write, the event log
// append and the broadcast are issued together; only the durable write can
// fail the call.
func (c *Client) Choose(ctx context.Context, stallId uuid.UUID) error {
	view := c.View()
	if view.Session == nil {
		return ErrNotOpen
	}
	stall := view.StallById(stallId)
	if stall == nil {
		return fmt.Errorf("stall %s is not in this session: %w", stallId, entity.ErrInvalidInput)
	}

	id := stall.Id
	return c.act(ctx, view.Session.Id, entity.EventDecisionMade,
		map[string]interface{}{"stall_id": id.String(), "stall_name": stall.Name},
		dto.DecisionPayload{StallId: &id, StallName: stall.Name},
		func(ctx context.Context) (*entity.CurrentChoice, error) {
			return c.store.SetChosenStall(ctx, view.Session.Id, id)
		},
	)
}

func (c *Client) RequestDish(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("dish request text is empty: %w", entity.ErrInvalidInput)
	}
	view := c.View()
	if view.Session == nil {
		return ErrNotOpen
	}

	return c.act(ctx, view.Session.Id, entity.EventDishRequested,
		map[string]interface{}{"text": text},
		dto.DishRequestPayload{Text: text},
		func(ctx context.Context) (*entity.CurrentChoice, error) {
			return c.store.SetRequestText(ctx, view.Session.Id, text)
		},
	)
}

func (c *Client) act(
	ctx context.Context,
	sessionId uuid.UUID,
	kind entity.EventKind,
	meta map[string]interface{},
	payload interface{},
	write func(context.Context) (*entity.CurrentChoice, error),
) error {
	var (
		wg       sync.WaitGroup
		row      *entity.CurrentChoice
		writeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		row, writeErr = write(ctx)
	}()
	go func() {
		defer wg.Done()
		if c.events == nil {
			return
		}
		if _, err := c.events.Append(ctx, sessionId, kind, meta); err != nil {
			c.logger.Warn("Reconciler", "Event log append failed", map[string]interface{}{
				"kind":  string(kind),
				"error": err.Error(),
			})
		}
	}()
	if c.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.feed.Broadcast(ctx, sessionId, string(kind), payload); err != nil {
				c.logger.Warn("Reconciler", "Broadcast failed", map[string]interface{}{
					"event": string(kind),
					"error": err.Error(),
				})
			}
		}()
	}
	wg.Wait()

	if writeErr != nil {
		c.reportError(writeErr)
		return writeErr
	}
	c.Dispatch(ChoiceChanged{Row: row})
	return nil
}

// AllChecked starts the decision timer, logs all_checked and returns the
// path to share with the eater.
func (c *Client) AllChecked(ctx context.Context) (string, error) {
	view := c.View()
	if view.Session == nil {
		return "", ErrNotOpen
	}

	c.timer.Start()
	if c.events != nil {
		if _, err := c.events.Append(ctx, view.Session.Id, entity.EventAllChecked, map[string]interface{}{}); err != nil {
			c.logger.Warn("Reconciler", "Event log append failed", map[string]interface{}{
				"kind":  string(entity.EventAllChecked),
				"error": err.Error(),
			})
		}
	}
	return PeerPath("/"+string(RoleBuyer)+"/"+view.Session.Code, RoleBuyer), nil
}

// StopTimer cancels the decision timer and returns the elapsed seconds.
func (c *Client) StopTimer() (int, bool) {
	return c.timer.Stop()
}

// Close stops the subscription. Toggles still inside their debounce window
// are written before Close returns.
func (c *Client) Close() error {
	c.debouncer.Flush()
	c.debouncer.Stop()

	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.closed = true
	c.mu.Unlock()

	if sub != nil {
		return sub.Close()
	}
	return nil
}

func (c *Client) reportError(err error) {
	if c.hooks.OnError != nil {
		c.hooks.OnError(err)
	}
}

func (c *Client) handleFrame(frame dto.Frame) {
	sig, err := FrameToSignal(frame)
	if err != nil {
		c.logger.Warn("Reconciler", "Ignoring undecodable frame", map[string]interface{}{
			"type":  frame.Type,
			"error": err.Error(),
		})
		return
	}
	if sig != nil {
		c.Dispatch(sig)
	}
}

// FrameToSignal decodes a realtime frame. Unknown frames yield nil.
func FrameToSignal(frame dto.Frame) (Signal, error) {
	switch frame.Type {
	case dto.FrameChange:
		switch frame.Table {
		case dto.TableAvailability:
			var row dto.AvailabilityRow
			if err := json.Unmarshal(frame.Row, &row); err != nil {
				return nil, err
			}
			return AvailabilityChanged{Row: mapper.RowToAvailability(row)}, nil
		case dto.TableCurrentChoice:
			var row dto.CurrentChoiceRow
			if err := json.Unmarshal(frame.Row, &row); err != nil {
				return nil, err
			}
			return ChoiceChanged{Row: mapper.RowToCurrentChoice(row)}, nil
		}
	case dto.FrameBroadcast:
		switch frame.Event {
		case string(entity.EventDecisionMade):
			var p dto.DecisionPayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil {
				return nil, err
			}
			return DecisionBroadcast{StallId: p.StallId, StallName: p.StallName}, nil
		case string(entity.EventDishRequested):
			var p dto.DishRequestPayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil {
				return nil, err
			}
			return DishRequestBroadcast{Text: p.Text}, nil
		}
	}
	return nil, nil
}
