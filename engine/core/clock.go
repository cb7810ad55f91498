package core

import "time"

// ClockMode selects where frame deltas come from
type ClockMode uint8

const (
	// ClockLive measures wall-clock time between polls
	ClockLive ClockMode = iota
	// ClockDriven returns a caller-supplied fixed delta
	ClockDriven
)

func (m ClockMode) String() string {
	if m == ClockDriven {
		return "driven"
	}
	return "live"
}

// Clock supplies per-frame elapsed time. It is either live or driven, never both.
type Clock struct {
	// MaxDelta caps live deltas (seconds) when > 0
	MaxDelta float64

	mode    ClockMode
	fixed   float64
	now     func() time.Time
	last    time.Time
	started bool
}

// NewClock returns a live clock reading time.Now
func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

// NewClockWithSource returns a live clock reading now
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Mode reports the current regime
func (c *Clock) Mode() ClockMode { return c.mode }

// Delta returns the seconds to advance this frame.
// Live: time since the previous poll, 0 on the first poll, never negative.
// Driven: the fixed delta passed to Drive, without reading the clock.
func (c *Clock) Delta() float64 {
	if c.mode == ClockDriven {
		return c.fixed
	}

	t := c.now()
	if !c.started {
		c.started = true
		c.last = t
		return 0
	}
	d := t.Sub(c.last).Seconds()
	c.last = t
	if d < 0 {
		d = 0
	}
	if c.MaxDelta > 0 && d > c.MaxDelta {
		d = c.MaxDelta
	}
	return d
}

// Drive switches to the driven regime with a fixed delta
func (c *Clock) Drive(dt float64) {
	c.mode = ClockDriven
	c.fixed = dt
}

// Release returns to the live regime. The next poll returns 0 so time spent
// driven does not leak into the first live frame.
func (c *Clock) Release() {
	c.mode = ClockLive
	c.fixed = 0
	c.started = false
}
