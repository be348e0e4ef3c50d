package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move through windows without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := New()
	l.now = func() time.Time { return clock.now }
	return l, clock
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("client-a /movies", 5), "request %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("client-a /movies", 5), "request over the limit should be denied")
}

func TestWindowRollover(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k", 3))
	}
	assert.False(t, l.Allow("k", 3))

	// Mid-window: still denied
	clock.advance(30 * time.Second)
	assert.False(t, l.Allow("k", 3))

	// After the window has aged past the interval, the counter resets
	clock.advance(31 * time.Second)
	assert.True(t, l.Allow("k", 3))
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	assert.True(t, l.Allow("client-a GET /users/", 1))
	assert.False(t, l.Allow("client-a GET /users/", 1))

	// A different client, and the same client on a different route, are
	// unaffected.
	assert.True(t, l.Allow("client-b GET /users/", 1))
	assert.True(t, l.Allow("client-a POST /users/", 1))
}

func TestZeroLimitDisablesThrottling(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k", 0))
	}
}

func TestPruneDropsStaleWindows(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 5000; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), 10)
	}
	clock.advance(2 * time.Minute)

	// The next insert triggers a prune of everything stale.
	l.Allow("fresh", 10)
	l.mu.Lock()
	size := len(l.windows)
	l.mu.Unlock()
	assert.LessOrEqual(t, size, 2)
}
