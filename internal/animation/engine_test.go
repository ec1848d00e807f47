package animation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/kinematics"
)

func newReferenceEngine(t *testing.T) *Engine {
	t.Helper()
	d, err := NewTimeDomain(0, 5.0, 0.05)
	require.NoError(t, err)
	e, err := NewEngine(kinematics.DefaultCubic(), d, DefaultTrailCapacity)
	require.NoError(t, err)
	return e
}

func TestNewEngine_Errors(t *testing.T) {
	d := TimeDomain{TMin: 0, TMax: 5, Dt: 0.05}

	_, err := NewEngine(nil, d, 10)
	assert.Error(t, err)

	_, err = NewEngine(kinematics.DefaultCubic(), TimeDomain{TMin: 0, TMax: 5, Dt: 0}, 10)
	assert.ErrorIs(t, err, ErrInvalidTimeDomain)

	_, err = NewEngine(kinematics.DefaultCubic(), d, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestEngine_ReferenceScenario(t *testing.T) {
	e := newReferenceEngine(t)

	first := e.Tick(0)
	assert.Equal(t, 0.0, first.Time)
	assert.InDelta(t, -5.0, first.Position, 1e-12)
	assert.InDelta(t, 24.0, first.Velocity, 1e-12)
	assert.InDelta(t, -30.0, first.Acceleration, 1e-12)
	assert.Equal(t, []float64{-5}, first.Trail)
	assert.False(t, first.Terminated)

	u := e.Tick(20)
	assert.InDelta(t, 1.0, u.Time, 1e-12)
	assert.InDelta(t, 6.0, u.Position, 1e-9)
	assert.InDelta(t, 0.0, u.Velocity, 1e-9)
	assert.InDelta(t, -18.0, u.Acceleration, 1e-9)
	assert.False(t, u.Terminated)

	u = e.Tick(1000)
	assert.Equal(t, 5.0, u.Time)
	assert.True(t, u.Terminated)
	assert.InDelta(t, -10.0, u.Position, 1e-9)
	assert.Len(t, u.Trail, 3)
}

func TestEngine_TerminatesExactlyAtTMax(t *testing.T) {
	e := newReferenceEngine(t)
	d := e.Domain()

	for frame := 0; frame <= 250; frame++ {
		u := e.Tick(frame)
		assert.Equal(t, float64(frame)*d.Dt >= d.TMax, u.Terminated, "frame %d", frame)
		assert.LessOrEqual(t, u.Time, d.TMax, "frame %d", frame)
	}

	u := e.Tick(e.FrameCount())
	assert.True(t, u.Terminated)
	assert.Equal(t, d.TMax, u.Time)
	u = e.Tick(e.FrameCount() - 1)
	assert.False(t, u.Terminated)
}

func TestEngine_TimeIsMonotonic(t *testing.T) {
	e := newReferenceEngine(t)
	prev := -1.0
	for frame := 0; frame <= 150; frame++ {
		u := e.Tick(frame)
		assert.GreaterOrEqual(t, u.Time, prev)
		prev = u.Time
	}
}

func TestEngine_TrailBoundedAndChronological(t *testing.T) {
	e := newReferenceEngine(t)
	d := e.Domain()
	capacity := e.TrailCap()

	for frame := 0; frame <= 180; frame++ {
		u := e.Tick(frame)
		require.LessOrEqual(t, len(u.Trail), capacity)

		if frame+1 < capacity {
			assert.Len(t, u.Trail, frame+1)
			continue
		}
		assert.Len(t, u.Trail, capacity)

		oldestFrame := frame - capacity + 1
		wantOldest, _, _ := e.Evaluate(d.Clamp(d.RawTime(oldestFrame)))
		assert.Equal(t, wantOldest, u.Trail[0], "frame %d", frame)
		assert.Equal(t, u.Position, u.Trail[len(u.Trail)-1])
	}
}

func TestEngine_EvaluatedValuesAreIdempotent(t *testing.T) {
	e := newReferenceEngine(t)
	d := e.Domain()

	for _, frame := range []int{0, 7, 20, 99, 100, 101, 400} {
		a := e.Tick(frame)
		b := e.Tick(frame)

		assert.Equal(t, a.Time, b.Time)
		assert.Equal(t, a.Position, b.Position)
		assert.Equal(t, a.Velocity, b.Velocity)
		assert.Equal(t, a.Acceleration, b.Acceleration)

		s, v, acc := e.Evaluate(d.Clamp(d.RawTime(frame)))
		assert.Equal(t, s, a.Position)
		assert.Equal(t, v, a.Velocity)
		assert.Equal(t, acc, a.Acceleration)
	}
}

func TestEngine_ResetReproducesFirstFrame(t *testing.T) {
	e := newReferenceEngine(t)

	first := e.Tick(0)
	for frame := 1; frame <= 120; frame++ {
		e.Tick(frame)
	}
	require.Equal(t, DefaultTrailCapacity, e.TrailLen())

	e.Reset()
	assert.Equal(t, 0, e.TrailLen())

	again := e.Tick(0)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("first frame after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_UpdateTrailIsIndependent(t *testing.T) {
	e := newReferenceEngine(t)

	u := e.Tick(0)
	u.Trail[0] = 1234

	next := e.Tick(1)
	assert.Equal(t, -5.0, next.Trail[0])
}

func TestEngine_NegativeFrameClampsToZero(t *testing.T) {
	e := newReferenceEngine(t)
	u := e.Tick(-3)
	assert.Equal(t, 0, u.Frame)
	assert.Equal(t, 0.0, u.Time)
}
