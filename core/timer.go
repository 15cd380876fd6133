package core

import "time"

// Clock is the scanner's time base: monotonic time since boot plus the short
// busy waits needed for multiplexer settling.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// SystemClock reads the runtime's monotonic clock.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock starts a clock at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.boot)
}

// Sleep waits for d. Settling delays are a few microseconds, below the
// scheduler's resolution, so short waits spin.
func (c *SystemClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
