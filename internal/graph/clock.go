package graph

import "sync/atomic"

// Clock numbers edits.
//
// A graph starts its clock after the last sequence number its store
// committed, and each commit records the clock's reading, so committed edits
// are numbered in order across reopens. Rolled-back edits consume numbers
// too; after a reopen those numbers may be handed out again.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns after+1.
func NewClock(after int64) *Clock {
	c := &Clock{}
	c.seq.Store(after)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
