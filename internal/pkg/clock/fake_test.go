package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := 0
	c.AfterFunc(100*time.Millisecond, func() { fired++ })

	c.Advance(99 * time.Millisecond)
	assert.Equal(t, 0, fired)

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	c.Advance(time.Second)
	assert.Equal(t, 1, fired, "one-shot callbacks fire once")
}

func TestFakeStopCancelsPendingCall(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(10*time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	var order []int
	c.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })

	c.Advance(time.Second)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFakeCallbackMayScheduleAgain(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	calls := 0
	var schedule func()
	schedule = func() {
		calls++
		if calls < 3 {
			c.AfterFunc(0, schedule)
		}
	}
	c.AfterFunc(5*time.Millisecond, schedule)

	c.Advance(5 * time.Millisecond)
	assert.Equal(t, 3, calls)
}
