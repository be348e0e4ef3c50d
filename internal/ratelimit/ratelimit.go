// Package ratelimit implements a fixed-window request throttle keyed by
// (client, route). Each key gets a counting window of one interval; the
// window resets once it has aged past the interval, so a burst that fills a
// window is allowed again after rollover. Denied requests never touch
// business state.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultInterval is the window length used by New.
const DefaultInterval = time.Minute

type window struct {
	start time.Time
	count int
}

// Limiter tracks fixed counting windows per key. It is the only piece of
// shared mutable in-process state in the service, guarded by a single mutex.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	interval time.Duration
	now      func() time.Time
}

// New creates a Limiter with one-minute windows.
func New() *Limiter {
	return NewWithInterval(DefaultInterval)
}

// NewWithInterval creates a Limiter with a custom window length.
func NewWithInterval(interval time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		interval: interval,
		now:      time.Now,
	}
}

// Allow records a request for key and reports whether it fits within limit
// requests per window. A zero or negative limit disables throttling.
func (l *Limiter) Allow(key string, limit int) bool {
	if limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.interval {
		l.windows[key] = &window{start: now, count: 1}
		l.pruneLocked(now)
		return true
	}

	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// pruneLocked drops stale windows so the map does not grow without bound
// under churning client keys. Called with the mutex held.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.windows) < 4096 {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.interval {
			delete(l.windows, key)
		}
	}
}
