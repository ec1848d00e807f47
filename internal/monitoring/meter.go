package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMeterInterval is how often a FrameMeter logs throughput.
const DefaultMeterInterval = 5 * time.Second

// FrameMeter counts frames and drops for one component and logs a throughput
// line at most once per interval.
type FrameMeter struct {
	name     string
	interval time.Duration
	now      func() time.Time

	frames  atomic.Uint64
	dropped atomic.Uint64

	mu         sync.Mutex
	lastTime   time.Time
	lastFrames uint64
}

// MeterStats is a point-in-time copy of a meter's counters.
type MeterStats struct {
	Frames  uint64
	Dropped uint64
}

// NewFrameMeter returns a meter that labels its log lines with name.
// A non-positive interval selects DefaultMeterInterval.
func NewFrameMeter(name string, interval time.Duration) *FrameMeter {
	if interval <= 0 {
		interval = DefaultMeterInterval
	}
	return &FrameMeter{name: name, interval: interval, now: time.Now}
}

// SetNow overrides the meter's time source.
func (m *FrameMeter) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Frame records one delivered frame and reports whether a stats line was logged.
func (m *FrameMeter) Frame() bool {
	count := m.frames.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.lastTime.IsZero() {
		m.lastTime = now
		m.lastFrames = count
		return false
	}

	elapsed := now.Sub(m.lastTime)
	if elapsed < m.interval {
		return false
	}

	inInterval := count - m.lastFrames
	fps := float64(inInterval) / elapsed.Seconds()
	Logf("[%s] Stats: fps=%.1f frames=%d total=%d dropped=%d",
		m.name, fps, inInterval, count, m.dropped.Load())
	m.lastTime = now
	m.lastFrames = count
	return true
}

// Drop records one frame that could not be delivered.
func (m *FrameMeter) Drop() uint64 {
	return m.dropped.Add(1)
}

// Stats returns the current counters.
func (m *FrameMeter) Stats() MeterStats {
	return MeterStats{Frames: m.frames.Load(), Dropped: m.dropped.Load()}
}
