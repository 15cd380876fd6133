package sim

import (
	"sync"
	"time"
)

// Clock is a manual time base. Sleep advances it instantly, so settling
// delays cost nothing in tests but are still accounted for.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	slept  time.Duration
	sleeps int
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.slept += d
	c.sleeps++
	c.mu.Unlock()
}

// Advance moves time forward without counting it as a sleep.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Slept returns the total time spent in Sleep and the number of calls.
func (c *Clock) Slept() (time.Duration, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept, c.sleeps
}
