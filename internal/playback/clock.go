package playback

import "time"

// Clock accumulates elapsed time on the current page, one fixed period per
// tick. Elapsed time is kept as a Duration so that N ticks always add up to
// exactly N periods.
type Clock struct {
	period  time.Duration
	elapsed time.Duration
}

func NewClock(period time.Duration) *Clock {
	return &Clock{period: period}
}

// Tick adds one period and returns the new elapsed time in seconds.
func (c *Clock) Tick() float64 {
	c.elapsed += c.period
	return c.Seconds()
}

func (c *Clock) Seconds() float64 {
	return c.elapsed.Seconds()
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

func (c *Clock) Period() time.Duration {
	return c.period
}

func (c *Clock) Reset() {
	c.elapsed = 0
}
