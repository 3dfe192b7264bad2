package testfixtures

import (
	"sync"
	"time"
)

// Clock is a settable time source shared by services under test.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the clock's instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services. A nil clock falls back to
// the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceDays moves the clock by whole calendar days, keeping the wall time.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.AddDate(0, 0, days)
	return c.current
}

// Today returns midnight of the clock's calendar day in loc.
func (c *Clock) Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := c.Now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
