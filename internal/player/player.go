// Package player drives an animation.Engine at a fixed cadence and hands each
// frame update to the configured renderers.
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/timeutil"
)

// Renderer applies one frame update to an output.
// Render is called synchronously from the frame loop and must not retain u.
type Renderer interface {
	Render(u animation.FrameUpdate) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(u animation.FrameUpdate) error

// Render calls f(u).
func (f RendererFunc) Render(u animation.FrameUpdate) error { return f(u) }

// Config controls frame pacing.
type Config struct {
	// Interval between frames (default 100ms)
	Interval time.Duration

	// Repeat restarts from frame 0 after the terminated frame
	Repeat bool

	// Clock paces the loop (default timeutil.RealClock)
	Clock timeutil.Clock
}

type namedRenderer struct {
	name string
	r    Renderer
}

// Player owns the frame counter and the engine. Step and Run must not be
// called concurrently.
type Player struct {
	engine    *animation.Engine
	config    Config
	renderers []namedRenderer
	meter     *monitoring.FrameMeter

	frame int
	loops int
}

// New returns a Player positioned at frame 0.
func New(engine *animation.Engine, cfg Config) *Player {
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Player{
		engine: engine,
		config: cfg,
		meter:  monitoring.NewFrameMeter("Player", 0),
	}
}

// AddRenderer registers r under name. Renderers run in registration order.
func (p *Player) AddRenderer(name string, r Renderer) {
	p.renderers = append(p.renderers, namedRenderer{name: name, r: r})
}

// Renderers returns the registered renderer names in order.
func (p *Player) Renderers() []string {
	names := make([]string, len(p.renderers))
	for i, nr := range p.renderers {
		names[i] = nr.name
	}
	return names
}

// Step ticks the engine once, renders the update and advances the frame
// counter. done is true once the terminated frame has been rendered and
// Repeat is off. With Repeat on, the engine is reset after the terminated
// frame and the next Step starts again from frame 0.
func (p *Player) Step() (u animation.FrameUpdate, done bool) {
	u = p.engine.Tick(p.frame)
	p.render(u)
	p.meter.Frame()

	if !u.Terminated {
		p.frame++
		return u, false
	}

	if !p.config.Repeat {
		monitoring.Logf("[Player] Reached t=%.2fs at frame %d, stopping", u.Time, u.Frame)
		return u, true
	}

	p.loops++
	p.engine.Reset()
	p.frame = 0
	monitoring.Logf("[Player] Reached t=%.2fs at frame %d, restarting (loop %d)", u.Time, u.Frame, p.loops)
	return u, false
}

// Run renders the first frame immediately, then one frame per interval until
// the animation finishes (Repeat off) or ctx is cancelled.
func (p *Player) Run(ctx context.Context) error {
	monitoring.Logf("[Player] Starting: %d frames per pass, interval=%v repeat=%v renderers=%v",
		p.engine.FrameCount()+1, p.config.Interval, p.config.Repeat, p.Renderers())

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, done := p.Step(); done {
		return nil
	}

	ticker := p.config.Clock.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("[Player] Stopped at frame %d", p.frame)
			return ctx.Err()
		case <-ticker.C():
			if _, done := p.Step(); done {
				return nil
			}
		}
	}
}

// Frame returns the index the next Step will render.
func (p *Player) Frame() int {
	return p.frame
}

// Loops returns how many times the animation has restarted.
func (p *Player) Loops() int {
	return p.loops
}

// Stats returns the frame meter counters.
func (p *Player) Stats() monitoring.MeterStats {
	return p.meter.Stats()
}

func (p *Player) render(u animation.FrameUpdate) {
	for _, nr := range p.renderers {
		if err := safeRender(nr.r, u); err != nil {
			p.meter.Drop()
			monitoring.Logf("[Player] Renderer %s failed on frame %d: %v", nr.name, u.Frame, err)
		}
	}
}

// safeRender hands r its own copy of the trail and converts a panic into an error.
func safeRender(r Renderer, u animation.FrameUpdate) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	u.Trail = append([]float64(nil), u.Trail...)
	return r.Render(u)
}
