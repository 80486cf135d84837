package reconciler

import (
	"sync"
	"time"

	"stallpick-be/internal/pkg/clock"
)

// DecisionTimer measures how long the eater took to decide after the buyer
// finished checking stalls. Elapsed time is local wall clock.
type DecisionTimer struct {
	clock clock.Clock

	mu        sync.Mutex
	startedAt time.Time
	running   bool
}

func NewDecisionTimer(c clock.Clock) *DecisionTimer {
	if c == nil {
		c = clock.Real()
	}
	return &DecisionTimer{clock: c}
}

// Start returns false if the timer was already running.
func (t *DecisionTimer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.startedAt = t.clock.Now()
	t.running = true
	return true
}

// Stop returns the elapsed whole seconds, or false if it was not running.
func (t *DecisionTimer) Stop() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0, false
	}
	t.running = false
	return int(t.clock.Now().Sub(t.startedAt) / time.Second), true
}

func (t *DecisionTimer) Elapsed() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0, false
	}
	return t.clock.Now().Sub(t.startedAt), true
}

func (t *DecisionTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
