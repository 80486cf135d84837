package reconciler

import (
	"testing"
	"time"

	"stallpick-be/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
)

func TestDecisionTimer(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	timer := NewDecisionTimer(clk)

	_, ok := timer.Stop()
	assert.False(t, ok)

	assert.True(t, timer.Start())
	clk.Advance(30 * time.Second)
	assert.False(t, timer.Start(), "a running timer is not restarted")

	elapsed, ok := timer.Elapsed()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, elapsed)

	clk.Advance(1500 * time.Millisecond)
	secs, ok := timer.Stop()
	assert.True(t, ok)
	assert.Equal(t, 31, secs)
	assert.False(t, timer.Running())
}
