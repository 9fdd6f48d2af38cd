package runner

import "sync/atomic"

// Clock is a monotonic logical clock. Ledger rows are ordered by its
// values, never by wall-clock time.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock resuming after start, typically the highest
// sequence already in the ledger.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
