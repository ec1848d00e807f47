package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/kinematics"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmptySceneConfig_ResolvesToReferenceScene(t *testing.T) {
	s, err := EmptySceneConfig().Scene()
	require.NoError(t, err)

	assert.Equal(t, kinematics.DefaultCubic(), s.Model)
	assert.Equal(t, 0.0, s.TMin)
	assert.Equal(t, 5.0, s.TMax)
	assert.Equal(t, 0.05, s.Dt)
	assert.Equal(t, animation.DefaultTrailCapacity, s.TrailCapacity)
	assert.Equal(t, 100*time.Millisecond, s.FrameInterval)
	assert.True(t, s.Repeat)
	assert.Equal(t, -25.0, s.TrackMin)
	assert.Equal(t, 15.0, s.TrackMax)
	assert.Equal(t, 5.0, s.CurvePadding)
	assert.Equal(t, []string{RendererTerminal}, s.Renderers)
	assert.Equal(t, 1, s.PNGStride)
}

func TestDefaultSceneConfig_MatchesEmpty(t *testing.T) {
	want, err := EmptySceneConfig().Scene()
	require.NoError(t, err)
	got, err := DefaultSceneConfig().Scene()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	s, err := cfg.Scene()
	require.NoError(t, err)

	def, err := DefaultSceneConfig().Scene()
	require.NoError(t, err)
	assert.Equal(t, def, s)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "scene.json", `{
  "a": 1,
  "b": 0,
  "c": -3,
  "d": 2,
  "t_max": 2.5,
  "dt": 0.1,
  "trail_capacity": 10,
  "frame_interval": "40ms",
  "repeat": false,
  "renderers": ["PNG", " web "]
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.Scene()
	require.NoError(t, err)
	assert.Equal(t, kinematics.Cubic{A: 1, B: 0, C: -3, D: 2}, s.Model)
	assert.Equal(t, 2.5, s.TMax)
	assert.Equal(t, 0.1, s.Dt)
	assert.Equal(t, 10, s.TrailCapacity)
	assert.Equal(t, 40*time.Millisecond, s.FrameInterval)
	assert.False(t, s.Repeat)
	assert.Equal(t, []string{RendererPNG, RendererWeb}, s.Renderers)
	assert.True(t, s.HasRenderer(RendererWeb))
	assert.False(t, s.HasRenderer(RendererGRPC))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "scene.yaml", `
a: 2
b: -15
c: 24
d: -5
t_max: 5
dt: 0.05
renderers:
  - grpc
  - terminal
grpc_addr: "127.0.0.1:6000"
png_stride: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	s, err := cfg.Scene()
	require.NoError(t, err)

	assert.Equal(t, kinematics.DefaultCubic(), s.Model)
	assert.Equal(t, "127.0.0.1:6000", s.GRPCAddr)
	assert.Equal(t, 5, s.PNGStride)
	assert.Equal(t, []string{RendererGRPC, RendererTerminal}, s.Renderers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "scene.txt", "{}", "extension"},
		{"bad json", "scene.json", "{", "parse config JSON"},
		{"bad yaml", "scene.yml", "a: [", "parse config YAML"},
		{"t_max not after t_min", "scene.json", `{"t_min": 2, "t_max": 1}`, "invalid configuration"},
		{"zero dt", "scene.json", `{"dt": 0}`, "invalid configuration"},
		{"negative trail", "scene.json", `{"trail_capacity": -1}`, "invalid configuration"},
		{"bad interval", "scene.json", `{"frame_interval": "soon"}`, "frame_interval"},
		{"unknown renderer", "scene.json", `{"renderers": ["opengl"]}`, "invalid configuration"},
		{"inverted track", "scene.json", `{"track_min": 10, "track_max": -10}`, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_TooLarge(t *testing.T) {
	big := `{"renderers": ["terminal"], "output_dir": "` + strings.Repeat("x", maxFileSize) + `"}`
	path := writeFile(t, "big.json", big)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestScene_ValidationErrorsAreTyped(t *testing.T) {
	cfg := EmptySceneConfig()
	cfg.Dt = ptrFloat64(-1)

	_, err := cfg.Scene()
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Dt", verrs[0].Field())
}

func TestScene_InfiniteDomainRejected(t *testing.T) {
	cfg := EmptySceneConfig()
	inf := math.Inf(1)
	cfg.TMax = &inf

	_, err := cfg.Scene()
	assert.ErrorIs(t, err, animation.ErrInvalidTimeDomain)
}

func TestScene_TimeDomain(t *testing.T) {
	s, err := EmptySceneConfig().Scene()
	require.NoError(t, err)
	d, err := s.TimeDomain()
	require.NoError(t, err)
	assert.Equal(t, animation.TimeDomain{TMin: 0, TMax: 5, Dt: 0.05}, d)
}
