// Package plotimg renders frame updates to PNG images with gonum/plot. Each
// image stacks the track view above the time-series panel; the static
// curves are also written once on their own.
package plotimg

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/kinematics"
	"github.com/banshee-data/motion.report/internal/monitoring"
)

// CurvesFile is the name of the static curve image inside the output dir.
const CurvesFile = "curves.png"

// FrameFile returns the image name used for a frame index.
func FrameFile(frame int) string {
	return fmt.Sprintf("frame_%05d.png", frame)
}

// Config controls where and how images are written.
type Config struct {
	Dir          string
	Stride       int // write every Stride-th frame; the terminated frame is always written
	Title        string
	Width        vg.Length
	Height       vg.Length
	TrackMin     float64
	TrackMax     float64
	TickStep     float64
	CurvePadding float64
	Samples      int // points per static curve
}

// DefaultConfig returns the image layout used by the command.
func DefaultConfig() Config {
	return Config{
		Dir:          "frames",
		Stride:       1,
		Width:        8 * vg.Inch,
		Height:       6 * vg.Inch,
		TrackMin:     -25,
		TrackMax:     15,
		TickStep:     5,
		CurvePadding: 5,
		Samples:      201,
	}
}

var (
	positionColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	velocityColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	accelColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	markerColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	cursorColor   = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// Renderer writes PNG frames through a FileSystem.
type Renderer struct {
	fs     fsutil.FileSystem
	cfg    Config
	series kinematics.Series
	lo, hi float64

	written int
}

// New samples the model over [tMin, tMax] and creates the output directory.
func New(fs fsutil.FileSystem, model kinematics.Model, tMin, tMax float64, cfg Config) (*Renderer, error) {
	if fs == nil {
		return nil, errors.New("plotimg: nil filesystem")
	}
	def := DefaultConfig()
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	if cfg.Stride <= 0 {
		cfg.Stride = def.Stride
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if !(cfg.TrackMax > cfg.TrackMin) {
		cfg.TrackMin, cfg.TrackMax = def.TrackMin, def.TrackMax
	}
	if cfg.Samples < 2 {
		cfg.Samples = def.Samples
	}
	if err := fs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", cfg.Dir, err)
	}

	series := kinematics.Sample(model, tMin, tMax, (tMax-tMin)/float64(cfg.Samples-1))
	lo, hi := series.Bounds()
	return &Renderer{
		fs:     fs,
		cfg:    cfg,
		series: series,
		lo:     lo - cfg.CurvePadding,
		hi:     hi + cfg.CurvePadding,
	}, nil
}

// Written returns the number of frame images written so far.
func (r *Renderer) Written() int { return r.written }

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.cfg.Dir }

// WriteCurves writes the static curves image.
func (r *Renderer) WriteCurves() error {
	p, err := r.curvesPlot(nil)
	if err != nil {
		return err
	}
	img := vgimg.New(r.cfg.Width, r.cfg.Height/2)
	p.Draw(draw.New(img))
	return r.save(CurvesFile, img)
}

// Render writes the frame image for u when it falls on the stride or ends
// the domain.
func (r *Renderer) Render(u animation.FrameUpdate) error {
	if u.Frame%r.cfg.Stride != 0 && !u.Terminated {
		return nil
	}
	img, err := r.Image(u)
	if err != nil {
		return err
	}
	if err := r.save(FrameFile(u.Frame), img); err != nil {
		return err
	}
	r.written++
	if u.Terminated {
		monitoring.Logf("[PNG] Wrote %d frames to %s", r.written, r.cfg.Dir)
	}
	return nil
}

// Image draws the composite image for u.
func (r *Renderer) Image(u animation.FrameUpdate) (*vgimg.Canvas, error) {
	track, err := r.trackPlot(u)
	if err != nil {
		return nil, fmt.Errorf("track panel: %w", err)
	}
	curves, err := r.curvesPlot(&u)
	if err != nil {
		return nil, fmt.Errorf("curves panel: %w", err)
	}

	img := vgimg.New(r.cfg.Width, r.cfg.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      2 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{{track}, {curves}}, tiles, dc)
	track.Draw(canvases[0][0])
	curves.Draw(canvases[1][0])
	return img, nil
}

func (r *Renderer) save(name string, img *vgimg.Canvas) error {
	path := filepath.Join(r.cfg.Dir, name)
	w, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// trackPlot draws the marker on the horizontal track with the trail fading
// from oldest to newest.
func (r *Renderer) trackPlot(u animation.FrameUpdate) (*plot.Plot, error) {
	p := plot.New()
	if r.cfg.Title != "" {
		p.Title.Text = r.cfg.Title
	}
	p.X.Label.Text = "Position"
	p.X.Min, p.X.Max = r.cfg.TrackMin, r.cfg.TrackMax
	p.Y.Min, p.Y.Max = -1, 1
	p.HideY()
	if ticks := r.ticks(); len(ticks) > 0 {
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}

	grid := plotter.NewGrid()
	grid.Horizontal.Color = nil
	p.Add(grid)

	lane, err := plotter.NewLine(plotter.XYs{
		{X: r.cfg.TrackMin, Y: animation.Lane},
		{X: r.cfg.TrackMax, Y: animation.Lane},
	})
	if err != nil {
		return nil, err
	}
	lane.Color = cursorColor
	lane.Width = vg.Points(1)
	p.Add(lane)

	// Oldest entries fade out; the newest is the marker itself.
	n := len(u.Trail)
	for i := 0; i < n-1; i++ {
		x := u.Trail[i]
		if x < r.cfg.TrackMin || x > r.cfg.TrackMax {
			continue
		}
		dot, err := plotter.NewScatter(plotter.XYs{{X: x, Y: animation.Lane}})
		if err != nil {
			return nil, err
		}
		alpha := uint8(30 + 180*(i+1)/n)
		dot.GlyphStyle.Color = color.NRGBA{R: markerColor.R, G: markerColor.G, B: markerColor.B, A: alpha}
		dot.GlyphStyle.Shape = draw.CircleGlyph{}
		dot.GlyphStyle.Radius = vg.Points(3)
		p.Add(dot)
	}

	marker, err := plotter.NewScatter(plotter.XYs{{X: clamp(u.Position, r.cfg.TrackMin, r.cfg.TrackMax), Y: animation.Lane}})
	if err != nil {
		return nil, err
	}
	marker.GlyphStyle.Color = markerColor
	marker.GlyphStyle.Shape = draw.CircleGlyph{}
	marker.GlyphStyle.Radius = vg.Points(6)
	p.Add(marker)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: r.cfg.TrackMin, Y: 0.6}},
		Labels: []string{fmt.Sprintf("t = %.2f s   s = %.2f", u.Time, u.Position)},
	})
	if err != nil {
		return nil, err
	}
	p.Add(labels)
	return p, nil
}

// curvesPlot draws the three curves over the whole domain. When u is set it
// adds a dashed cursor at the current time and the current values.
func (r *Renderer) curvesPlot(u *animation.FrameUpdate) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Value"
	p.X.Min, p.X.Max = r.series.T[0], r.series.T[len(r.series.T)-1]
	p.Y.Min, p.Y.Max = r.lo, r.hi
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	curves := []struct {
		name string
		ys   []float64
		col  color.Color
	}{
		{"position s(t)", r.series.S, positionColor},
		{"velocity v(t)", r.series.V, velocityColor},
		{"acceleration a(t)", r.series.A, accelColor},
	}
	for _, c := range curves {
		pts := make(plotter.XYs, len(c.ys))
		for i, y := range c.ys {
			pts[i] = plotter.XY{X: r.series.T[i], Y: y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = c.col
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(c.name, line)
	}

	if u == nil {
		return p, nil
	}

	cursor, err := plotter.NewLine(plotter.XYs{{X: u.Time, Y: r.lo}, {X: u.Time, Y: r.hi}})
	if err != nil {
		return nil, err
	}
	cursor.Color = cursorColor
	cursor.Width = vg.Points(1)
	cursor.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(cursor)

	values := []struct {
		y   float64
		col color.Color
	}{
		{u.Position, positionColor},
		{u.Velocity, velocityColor},
		{u.Acceleration, accelColor},
	}
	for _, v := range values {
		pt, err := plotter.NewScatter(plotter.XYs{{X: u.Time, Y: v.y}})
		if err != nil {
			return nil, err
		}
		pt.GlyphStyle.Color = v.col
		pt.GlyphStyle.Shape = draw.CircleGlyph{}
		pt.GlyphStyle.Radius = vg.Points(4)
		p.Add(pt)
	}
	return p, nil
}

func (r *Renderer) ticks() []plot.Tick {
	if r.cfg.TickStep <= 0 {
		return nil
	}
	var ticks []plot.Tick
	start := math.Ceil(r.cfg.TrackMin/r.cfg.TickStep) * r.cfg.TickStep
	for x := start; x <= r.cfg.TrackMax+1e-9; x += r.cfg.TickStep {
		ticks = append(ticks, plot.Tick{Value: x, Label: fmt.Sprintf("%g", x)})
	}
	return ticks
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
