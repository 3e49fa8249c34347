package mocks

import (
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing
type MockClock struct {
	CurrentTime time.Time

	// Tickers created through this clock, in creation order
	Tickers []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.CurrentTime = t
}

// NewTicker returns a manually-driven ticker and records it
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	t := &MockTicker{
		clock:    c,
		Interval: d,
		ch:       make(chan time.Time, 1),
	}
	c.Tickers = append(c.Tickers, t)
	return t
}

// MockTicker is a manually-driven ticker for testing
type MockTicker struct {
	clock    *MockClock
	Interval time.Duration
	Stopped  bool
	ch       chan time.Time
}

var _ clock.Ticker = (*MockTicker)(nil)

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped
func (t *MockTicker) Stop() {
	t.Stopped = true
}

// Tick advances the owning clock by the ticker interval and delivers a tick
func (t *MockTicker) Tick() {
	t.clock.Advance(t.Interval)
	t.ch <- t.clock.CurrentTime
}
