package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Series holds a profile sampled over a time range. T, S, V and A always have
// the same length.
type Series struct {
	T []float64 // time (s)
	S []float64 // position
	V []float64 // velocity
	A []float64 // acceleration
}

// Sample evaluates m at evenly spaced times from tMin to tMax inclusive,
// nominally dt apart. The sample count is round((tMax-tMin)/dt)+1 so that
// both ends of the range are always present.
// A degenerate range (tMax <= tMin or dt <= 0) yields the single sample at tMin.
func Sample(m Model, tMin, tMax, dt float64) Series {
	n := 1
	if tMax > tMin && dt > 0 {
		n = int(math.Round((tMax-tMin)/dt)) + 1
	}

	ts := make([]float64, n)
	if n == 1 {
		ts[0] = tMin
	} else {
		floats.Span(ts, tMin, tMax)
	}

	s := Series{
		T: ts,
		S: make([]float64, n),
		V: make([]float64, n),
		A: make([]float64, n),
	}
	for i, t := range ts {
		s.S[i] = m.Position(t)
		s.V[i] = m.Velocity(t)
		s.A[i] = m.Acceleration(t)
	}
	return s
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.T)
}

// Bounds returns the smallest and largest value across all three curves.
// An empty series yields (0, 0).
func (s Series) Bounds() (lo, hi float64) {
	if s.Len() == 0 {
		return 0, 0
	}
	lo = math.Min(floats.Min(s.S), math.Min(floats.Min(s.V), floats.Min(s.A)))
	hi = math.Max(floats.Max(s.S), math.Max(floats.Max(s.V), floats.Max(s.A)))
	return lo, hi
}
