// Package terminal draws frame updates as text: a one-line track with the
// marker and its fading trail, and an ASCII chart of the three curves drawn
// up to the current time.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/kinematics"
)

const clearScreen = "\033[H\033[2J"

// Config controls the layout of the text view.
type Config struct {
	Title        string
	TrackMin     float64 // left edge of the track (position units)
	TrackMax     float64 // right edge of the track
	TickStep     float64 // spacing of track reference ticks; 0 disables them
	TrackWidth   int     // columns used by the track
	GraphWidth   int     // columns used by the curves
	GraphHeight  int     // rows used by the curves
	CurvePadding float64 // added above and below the curve range
	ClearScreen  bool    // emit an ANSI clear before each frame
}

// DefaultConfig returns the layout used by the command.
func DefaultConfig() Config {
	return Config{
		TrackMin:     -25,
		TrackMax:     15,
		TickStep:     5,
		TrackWidth:   81,
		GraphWidth:   72,
		GraphHeight:  12,
		CurvePadding: 5,
		ClearScreen:  true,
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).MarginBottom(1)
	markerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
	timeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	// trail colours from oldest to newest
	trailShades = []lipgloss.Color{"52", "88", "124", "160", "196"}
)

// Renderer writes one text frame per update to an io.Writer.
type Renderer struct {
	w   io.Writer
	cfg Config

	// curve columns sampled once at construction
	ts, s, v, a []float64
	lo, hi      float64
}

// New samples the model across [tMin, tMax] at GraphWidth columns.
func New(w io.Writer, model kinematics.Model, tMin, tMax float64, cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.TrackWidth < 3 {
		cfg.TrackWidth = def.TrackWidth
	}
	if cfg.GraphWidth < 2 {
		cfg.GraphWidth = def.GraphWidth
	}
	if cfg.GraphHeight < 2 {
		cfg.GraphHeight = def.GraphHeight
	}
	if !(cfg.TrackMax > cfg.TrackMin) {
		cfg.TrackMin, cfg.TrackMax = def.TrackMin, def.TrackMax
	}

	step := (tMax - tMin) / float64(cfg.GraphWidth-1)
	series := kinematics.Sample(model, tMin, tMax, step)
	lo, hi := series.Bounds()

	return &Renderer{
		w:   w,
		cfg: cfg,
		ts:  series.T,
		s:   series.S,
		v:   series.V,
		a:   series.A,
		lo:  lo - cfg.CurvePadding,
		hi:  hi + cfg.CurvePadding,
	}
}

// Render writes the frame for u.
func (r *Renderer) Render(u animation.FrameUpdate) error {
	out := r.Frame(u)
	if r.cfg.ClearScreen {
		out = clearScreen + out
	}
	_, err := io.WriteString(r.w, out+"\n")
	return err
}

// Frame builds the text for u without writing it.
func (r *Renderer) Frame(u animation.FrameUpdate) string {
	var sections []string
	if r.cfg.Title != "" {
		sections = append(sections, titleStyle.Render(r.cfg.Title))
	}
	sections = append(sections,
		timeStyle.Render(fmt.Sprintf("time: %.2f s", u.Time)),
		r.track(u),
		r.trackLabels(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, r.graph(u), "  ", r.info(u)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// column maps a position onto the track, reporting false when off-track.
func (r *Renderer) column(x float64) (int, bool) {
	if x < r.cfg.TrackMin || x > r.cfg.TrackMax || math.IsNaN(x) {
		return 0, false
	}
	frac := (x - r.cfg.TrackMin) / (r.cfg.TrackMax - r.cfg.TrackMin)
	return int(math.Round(frac * float64(r.cfg.TrackWidth-1))), true
}

func (r *Renderer) tickColumns() map[int]float64 {
	ticks := make(map[int]float64)
	if r.cfg.TickStep <= 0 {
		return ticks
	}
	start := math.Ceil(r.cfg.TrackMin/r.cfg.TickStep) * r.cfg.TickStep
	for x := start; x <= r.cfg.TrackMax; x += r.cfg.TickStep {
		if col, ok := r.column(x); ok {
			ticks[col] = x
		}
	}
	return ticks
}

func (r *Renderer) track(u animation.FrameUpdate) string {
	cells := make([]string, r.cfg.TrackWidth)
	for i := range cells {
		cells[i] = trackStyle.Render("─")
	}
	for col := range r.tickColumns() {
		cells[col] = trackStyle.Render("┼")
	}

	// Trail without the newest sample, which is the marker itself.
	n := len(u.Trail)
	for i := 0; i < n-1; i++ {
		col, ok := r.column(u.Trail[i])
		if !ok {
			continue
		}
		shade := trailShades[i*len(trailShades)/n]
		cells[col] = lipgloss.NewStyle().Foreground(shade).Render("•")
	}

	prefix, suffix := " ", " "
	if col, ok := r.column(u.Position); ok {
		cells[col] = markerStyle.Render("●")
	} else if u.Position < r.cfg.TrackMin {
		prefix = markerStyle.Render("◀")
	} else {
		suffix = markerStyle.Render("▶")
	}
	return prefix + strings.Join(cells, "") + suffix
}

func (r *Renderer) trackLabels() string {
	row := []rune(strings.Repeat(" ", r.cfg.TrackWidth+2))
	for col, x := range r.tickColumns() {
		label := strconv.FormatFloat(x, 'f', -1, 64)
		start := col + 1 - len(label)/2
		if start < 0 {
			start = 0
		}
		for i, ch := range label {
			if start+i < len(row) {
				row[start+i] = ch
			}
		}
	}
	return labelStyle.Render(strings.TrimRight(string(row), " "))
}

func (r *Renderer) graph(u animation.FrameUpdate) string {
	n := len(r.ts)
	s := make([]float64, n)
	v := make([]float64, n)
	a := make([]float64, n)
	for i, t := range r.ts {
		if t > u.Time+1e-9 && i > 0 {
			s[i], v[i], a[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		s[i], v[i], a[i] = r.s[i], r.v[i], r.a[i]
	}

	return asciigraph.PlotMany([][]float64{s, v, a},
		asciigraph.Height(r.cfg.GraphHeight),
		asciigraph.LowerBound(r.lo),
		asciigraph.UpperBound(r.hi),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green, asciigraph.Red),
		asciigraph.SeriesLegends("position s(t)", "velocity v(t)", "acceleration a(t)"),
		asciigraph.Caption(fmt.Sprintf("t = %.2f s", u.Time)),
	)
}

func (r *Renderer) info(u animation.FrameUpdate) string {
	lines := []string{
		fmt.Sprintf("position:     %7.2f", u.Position),
		fmt.Sprintf("velocity:     %7.2f", u.Velocity),
		fmt.Sprintf("acceleration: %7.2f", u.Acceleration),
		fmt.Sprintf("frame:        %7d", u.Frame),
	}
	if u.Terminated {
		lines = append(lines, "end of domain")
	}
	return infoStyle.Render(strings.Join(lines, "\n"))
}
