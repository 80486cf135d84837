package reconciler

import (
	"sync"
	"time"

	"stallpick-be/internal/pkg/clock"

	"github.com/google/uuid"
)

const DefaultDebounce = 100 * time.Millisecond

type scheduled struct {
	timer clock.Timer
	gen   uint64
	fn    func()
}

// Debouncer runs at most one callback per key after a quiet period.
// Scheduling a key again cancels the callback waiting for it.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	tasks   map[uuid.UUID]*scheduled
	gen     uint64
	stopped bool
}

func NewDebouncer(c clock.Clock, delay time.Duration) *Debouncer {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		clock: c,
		delay: delay,
		tasks: make(map[uuid.UUID]*scheduled),
	}
}

func (d *Debouncer) Schedule(key uuid.UUID, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.tasks[key]; ok {
		prev.timer.Stop()
	}

	d.gen++
	task := &scheduled{gen: d.gen, fn: fn}
	gen := d.gen
	task.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(key, gen)
	})
	d.tasks[key] = task
}

func (d *Debouncer) fire(key uuid.UUID, gen uint64) {
	d.mu.Lock()
	task, ok := d.tasks[key]
	if !ok || task.gen != gen {
		// Replaced or stopped after the timer had already fired.
		d.mu.Unlock()
		return
	}
	delete(d.tasks, key)
	d.mu.Unlock()

	task.fn()
}

func (d *Debouncer) Pending(key uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.tasks[key]
	return ok
}

// Flush runs every waiting callback now instead of at its deadline.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	tasks := make([]*scheduled, 0, len(d.tasks))
	for key, task := range d.tasks {
		task.timer.Stop()
		tasks = append(tasks, task)
		delete(d.tasks, key)
	}
	d.mu.Unlock()

	for _, task := range tasks {
		task.fn()
	}
}

// Stop cancels every waiting callback. Later Schedule calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, task := range d.tasks {
		task.timer.Stop()
		delete(d.tasks, key)
	}
	d.stopped = true
}
