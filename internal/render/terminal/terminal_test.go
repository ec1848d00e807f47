package terminal

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/kinematics"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func newRenderer(buf *bytes.Buffer) *Renderer {
	cfg := DefaultConfig()
	cfg.Title = kinematics.DefaultCubic().String()
	cfg.ClearScreen = false
	return New(buf, kinematics.DefaultCubic(), 0, 5, cfg)
}

func TestRender_WritesFrame(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	err := r.Render(animation.FrameUpdate{
		Frame:        20,
		Time:         1,
		Position:     6,
		Velocity:     0,
		Acceleration: -18,
		Trail:        []float64{-5, 0, 6},
	})
	require.NoError(t, err)

	out := plain(buf.String())
	assert.Contains(t, out, "s(t) = 2t³ - 15t² + 24t - 5")
	assert.Contains(t, out, "time: 1.00 s")
	assert.Contains(t, out, "position:        6.00")
	assert.Contains(t, out, "acceleration:  -18.00")
	assert.Contains(t, out, "t = 1.00 s")
	assert.NotContains(t, out, "end of domain")
	assert.NotContains(t, buf.String(), clearScreen)
}

func TestRender_ClearScreen(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	r := New(&buf, kinematics.DefaultCubic(), 0, 5, cfg)

	require.NoError(t, r.Render(animation.FrameUpdate{Trail: []float64{-5}, Position: -5}))
	assert.True(t, strings.HasPrefix(buf.String(), clearScreen))
}

func TestTrack_MarkerAndTrailPlacement(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	line := []rune(plain(r.track(animation.FrameUpdate{
		Position: 6,
		Trail:    []float64{-25, -5, 6},
	})))
	require.Len(t, line, r.cfg.TrackWidth+2)

	// Track spans -25..15 over 81 columns: 0.5 units per column, plus one
	// leading cell for the off-track indicator.
	assert.Equal(t, '●', line[1+62])
	assert.Equal(t, '•', line[1+0])
	assert.Equal(t, '•', line[1+40])
	assert.Equal(t, '┼', line[1+20], "tick at -15")
}

func TestTrack_OffTrackIndicators(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	left := plain(r.track(animation.FrameUpdate{Position: -40, Trail: []float64{-40}}))
	assert.True(t, strings.HasPrefix(left, "◀"))
	assert.NotContains(t, left, "●")

	right := plain(r.track(animation.FrameUpdate{Position: 40, Trail: []float64{40}}))
	assert.True(t, strings.HasSuffix(right, "▶"))
}

func TestTrackLabels(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	labels := plain(r.trackLabels())
	for _, want := range []string{"-25", "-15", "0", "10", "15"} {
		assert.Contains(t, labels, want)
	}
}

func TestFrame_TerminatedNote(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	out := plain(r.Frame(animation.FrameUpdate{Time: 5, Position: -10, Trail: []float64{-10}, Terminated: true}))
	assert.Contains(t, out, "end of domain")
}

func TestNew_FallsBackOnBadLayout(t *testing.T) {
	r := New(&bytes.Buffer{}, kinematics.DefaultCubic(), 0, 5, Config{TrackMin: 3, TrackMax: 1})
	def := DefaultConfig()
	assert.Equal(t, def.TrackWidth, r.cfg.TrackWidth)
	assert.Equal(t, def.GraphWidth, len(r.ts))
	assert.Equal(t, def.TrackMin, r.cfg.TrackMin)
	assert.Equal(t, def.TrackMax, r.cfg.TrackMax)
}
