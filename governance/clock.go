package governance

import (
	"sync/atomic"
	"time"
)

// Clock supplies the current ledger time in unix seconds.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current unix time.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock creates a clock reading start.
func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// Now returns the clock's current reading.
func (c *ManualClock) Now() int64 {
	return c.now.Load()
}

// Set moves the clock to t.
func (c *ManualClock) Set(t int64) {
	c.now.Store(t)
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (c *ManualClock) Advance(d time.Duration) int64 {
	return c.now.Add(int64(d / time.Second))
}
