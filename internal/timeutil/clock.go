// Package timeutil abstracts the wall clock so frame pacing can be driven
// manually in tests.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the time operations the frame loop depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration

	// NewTicker returns a Ticker delivering the time every d.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks at a fixed period.
type Ticker interface {
	// C returns the channel on which ticks are delivered.
	C() <-chan time.Time

	// Stop turns off the ticker.
	Stop()

	// Reset changes the ticker period to d.
	Reset(d time.Duration)
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// NewTicker returns a ticker backed by time.Ticker.
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time    { return t.ticker.C }
func (t *realTicker) Stop()                  { t.ticker.Stop() }
func (t *realTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// MockClock is a manually driven clock for tests.
type MockClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*MockTicker
	created chan *MockTicker
}

// NewMockClock returns a MockClock reading t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t, created: make(chan *MockTicker, 16)}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the mocked duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Advance moves the clock forward by d and fires every due ticker without
// blocking. A tick is dropped if the ticker channel is still full.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*MockTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.fireIfDue(now)
	}
}

// NewTicker registers and returns a MockTicker.
func (c *MockClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	t := &MockTicker{
		ch:       make(chan time.Time, 1),
		period:   d,
		nextTick: c.now.Add(d),
	}
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()

	select {
	case c.created <- t:
	default:
	}
	return t
}

// WaitForTicker blocks until a ticker is created or timeout elapses.
// It returns nil on timeout.
func (c *MockClock) WaitForTicker(timeout time.Duration) *MockTicker {
	select {
	case t := <-c.created:
		return t
	case <-time.After(timeout):
		return nil
	}
}

// MockTicker is a manually driven ticker.
type MockTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	period   time.Duration
	nextTick time.Time
	stopped  bool
}

// C returns the tick channel.
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop turns off the ticker; Advance no longer fires it.
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Reset restarts the ticker with period d.
func (t *MockTicker) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = false
	t.period = d
}

// Period returns the configured period.
func (t *MockTicker) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Fire delivers a tick, blocking until the receiver takes it or timeout
// elapses. It reports whether the tick was delivered.
func (t *MockTicker) Fire(now time.Time, timeout time.Duration) bool {
	select {
	case t.ch <- now:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (t *MockTicker) fireIfDue(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || now.Before(t.nextTick) {
		return
	}
	select {
	case t.ch <- now:
	default:
	}
	t.nextTick = now.Add(t.period)
}
