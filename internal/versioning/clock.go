package versioning

import (
	"sync/atomic"
	"time"
)

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// MonotonicClock wraps a Clock so that successive readings are strictly
// increasing at millisecond precision, the precision events are stored
// with. Version dates derived from event end times are therefore unique
// even when several events finish within the same millisecond.
//
// Thread-safety: MonotonicClock is safe for concurrent use (atomic
// compare-and-swap on the last reading).
type MonotonicClock struct {
	base Clock
	last atomic.Int64
}

// NewMonotonicClock wraps base. A nil base means SystemClock.
func NewMonotonicClock(base Clock) *MonotonicClock {
	if base == nil {
		base = SystemClock{}
	}
	return &MonotonicClock{base: base}
}

// Now returns max(base reading, previous reading + 1ms).
func (c *MonotonicClock) Now() time.Time {
	for {
		prev := c.last.Load()
		next := c.base.Now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.UnixMilli(next).UTC()
		}
	}
}
