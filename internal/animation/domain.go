// Package animation turns frame indices into self-consistent frame updates.
//
// The Engine derives a clamped simulation time for each frame, evaluates a
// kinematics.Model at that time and keeps a bounded trail of recent positions.
// Everything a view needs to redraw one frame is returned in a FrameUpdate.
package animation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTimeDomain is returned when a time domain is empty or does not advance.
var ErrInvalidTimeDomain = errors.New("invalid time domain")

// TimeDomain is the discretisation of [TMin, TMax] into steps of Dt.
type TimeDomain struct {
	TMin float64
	TMax float64
	Dt   float64
}

// NewTimeDomain validates and returns a time domain.
// TMax must be strictly greater than TMin and Dt strictly positive; all three
// must be finite.
func NewTimeDomain(tMin, tMax, dt float64) (TimeDomain, error) {
	for _, v := range []float64{tMin, tMax, dt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TimeDomain{}, fmt.Errorf("%w: non-finite value (t_min=%v t_max=%v dt=%v)", ErrInvalidTimeDomain, tMin, tMax, dt)
		}
	}
	if !(tMax > tMin) {
		return TimeDomain{}, fmt.Errorf("%w: t_max (%v) must be greater than t_min (%v)", ErrInvalidTimeDomain, tMax, tMin)
	}
	if !(dt > 0) {
		return TimeDomain{}, fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidTimeDomain, dt)
	}
	return TimeDomain{TMin: tMin, TMax: tMax, Dt: dt}, nil
}

// RawTime is the unclamped time of a frame: TMin + frame·Dt.
func (d TimeDomain) RawTime(frame int) float64 {
	return d.TMin + float64(frame)*d.Dt
}

// Clamp limits t to TMax.
func (d TimeDomain) Clamp(t float64) float64 {
	if t > d.TMax {
		return d.TMax
	}
	return t
}

// FrameCount returns the index of the first frame whose raw time reaches TMax.
// Playing frames 0..FrameCount() inclusive covers the whole domain.
func (d TimeDomain) FrameCount() int {
	n := int(math.Ceil((d.TMax - d.TMin) / d.Dt))
	// The division can land one ulp either side of an integer, e.g. 5/0.05.
	for n > 0 && d.RawTime(n-1) >= d.TMax {
		n--
	}
	for d.RawTime(n) < d.TMax {
		n++
	}
	return n
}
