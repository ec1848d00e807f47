package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameMeter_LogsOncePerInterval(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	now := time.Unix(1000, 0)
	m := NewFrameMeter("Test", time.Second)
	m.SetNow(func() time.Time { return now })

	assert.False(t, m.Frame(), "first frame only starts the window")
	for i := 0; i < 9; i++ {
		now = now.Add(100 * time.Millisecond)
		m.Frame()
	}
	assert.Empty(t, lines)

	now = now.Add(100 * time.Millisecond)
	m.Drop()
	assert.True(t, m.Frame())
	if assert.Len(t, lines, 1) {
		assert.Contains(t, lines[0], "[Test] Stats: fps=10.0 frames=10 total=11 dropped=1")
	}

	assert.Equal(t, MeterStats{Frames: 11, Dropped: 1}, m.Stats())
}

func TestNewFrameMeter_DefaultInterval(t *testing.T) {
	m := NewFrameMeter("x", 0)
	assert.Equal(t, DefaultMeterInterval, m.interval)
}
