package testutil

import (
	"sync"
	"time"
)

// Epoch is the start time of clocks created with NewWallClock(time.Time{}, ...).
var Epoch = time.UnixMilli(1_700_000_000_000).UTC()

// WallClock is a deterministic stand-in for time.Now.
//
// Each call to Now returns the previous value plus a fixed step, so commit
// timestamps in golden files are stable across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewWallClock creates a clock whose first reading is start. A zero start
// means Epoch. A zero step freezes the clock.
func NewWallClock(start time.Time, step time.Duration) *WallClock {
	if start.IsZero() {
		start = Epoch
	}
	return &WallClock{start: start, step: step}
}

// Now returns the next reading. Pass it to store.WithClock.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *WallClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its start.
//
// Used for test reuse. After Reset(), the next call to Now() returns start.
func (c *WallClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
