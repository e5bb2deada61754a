package timestamp

import (
	"sync"
	"time"
)

// Clock reports ledger time in unix seconds.
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current unix time.
func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock provides a controllable clock for tests and replays.
type ManualClock struct {
	mu      sync.RWMutex
	current uint64
}

// NewManualClock creates a ManualClock at the given unix time.
func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{current: now}
}

// Now returns the current time on the clock.
func (c *ManualClock) Now() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += d
}

// Set sets the clock to a specific time.
func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = now
}
