package scheduler

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

var _ clock.PassiveClock = (*SteppedClock)(nil)

// SteppedClock is a virtual clock that moves forward by a fixed step every
// time it is read. The scheduler reads its clock once per tick, so every tick
// observes a time slice of exactly one step.
type SteppedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppedClock returns a clock starting at start that advances by step on
// each call to Now.
func NewSteppedClock(start time.Time, step time.Duration) *SteppedClock {
	return &SteppedClock{now: start, step: step}
}

// Now advances the clock by one step and returns the new time.
func (c *SteppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(c.step)
	return c.now
}

// Since returns the virtual time elapsed since ts without advancing the clock.
func (c *SteppedClock) Since(ts time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now.Sub(ts)
}
