package animation

import (
	"fmt"

	"github.com/banshee-data/motion.report/internal/kinematics"
)

// FrameUpdate is everything the views need to redraw one frame.
// Trail is a private copy, oldest position first.
type FrameUpdate struct {
	Frame        int       `json:"frame"`
	Time         float64   `json:"t"`
	Position     float64   `json:"position"`
	Velocity     float64   `json:"velocity"`
	Acceleration float64   `json:"acceleration"`
	Trail        []float64 `json:"trail"`
	Terminated   bool      `json:"terminated"`
}

// Engine advances simulated time one step per Tick.
// It is not safe for concurrent use; callers serialise Tick and Reset.
type Engine struct {
	model  kinematics.Model
	domain TimeDomain
	trail  *TrailBuffer
}

// NewEngine returns an engine with an empty trail.
func NewEngine(model kinematics.Model, domain TimeDomain, trailCapacity int) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("animation: nil model")
	}
	// Re-validate in case the domain was built as a literal.
	if _, err := NewTimeDomain(domain.TMin, domain.TMax, domain.Dt); err != nil {
		return nil, err
	}
	trail, err := NewTrailBuffer(trailCapacity)
	if err != nil {
		return nil, err
	}
	return &Engine{model: model, domain: domain, trail: trail}, nil
}

// Tick produces the update for frame. Times past TMax are frozen at TMax and
// the update is flagged Terminated once the raw time reaches TMax.
// Negative frames are treated as frame 0.
func (e *Engine) Tick(frame int) FrameUpdate {
	if frame < 0 {
		frame = 0
	}
	tRaw := e.domain.RawTime(frame)
	t := e.domain.Clamp(tRaw)
	s, v, a := e.Evaluate(t)

	e.trail.Push(s)

	return FrameUpdate{
		Frame:        frame,
		Time:         t,
		Position:     s,
		Velocity:     v,
		Acceleration: a,
		Trail:        e.trail.Snapshot(),
		Terminated:   tRaw >= e.domain.TMax,
	}
}

// Evaluate returns position, velocity and acceleration at t without touching
// the trail.
func (e *Engine) Evaluate(t float64) (position, velocity, acceleration float64) {
	return e.model.Position(t), e.model.Velocity(t), e.model.Acceleration(t)
}

// Reset clears the trail. It must be called before replaying frames from 0.
func (e *Engine) Reset() {
	e.trail.Reset()
}

// TrailLen returns the current number of trail samples.
func (e *Engine) TrailLen() int {
	return e.trail.Len()
}

// TrailCap returns the trail capacity.
func (e *Engine) TrailCap() int {
	return e.trail.Cap()
}

// Domain returns the engine's time domain.
func (e *Engine) Domain() TimeDomain {
	return e.domain
}

// Model returns the engine's kinematics model.
func (e *Engine) Model() kinematics.Model {
	return e.model
}

// FrameCount is the index of the first terminated frame.
func (e *Engine) FrameCount() int {
	return e.domain.FrameCount()
}
