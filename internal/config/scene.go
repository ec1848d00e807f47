package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/kinematics"
)

// DefaultConfigPath is the path to the canonical scene defaults file.
const DefaultConfigPath = "config/scene.defaults.json"

// Renderer names accepted in the renderers list.
const (
	RendererTerminal = "terminal"
	RendererPNG      = "png"
	RendererWeb      = "web"
	RendererGRPC     = "grpc"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

var validate = validator.New()

// SceneConfig is the on-disk scene description. Every field is optional;
// the Get* methods fall back to the reference scene for anything unset, so
// partial files are safe. JSON and YAML share the same keys.
type SceneConfig struct {
	// Polynomial coefficients of s(t) = a·t³ + b·t² + c·t + d
	A *float64 `json:"a,omitempty" yaml:"a,omitempty"`
	B *float64 `json:"b,omitempty" yaml:"b,omitempty"`
	C *float64 `json:"c,omitempty" yaml:"c,omitempty"`
	D *float64 `json:"d,omitempty" yaml:"d,omitempty"`

	// Time domain
	TMin *float64 `json:"t_min,omitempty" yaml:"t_min,omitempty"`
	TMax *float64 `json:"t_max,omitempty" yaml:"t_max,omitempty"`
	Dt   *float64 `json:"dt,omitempty" yaml:"dt,omitempty"`

	// Animation
	TrailCapacity *int    `json:"trail_capacity,omitempty" yaml:"trail_capacity,omitempty"`
	FrameInterval *string `json:"frame_interval,omitempty" yaml:"frame_interval,omitempty"` // duration string like "100ms"
	Repeat        *bool   `json:"repeat,omitempty" yaml:"repeat,omitempty"`

	// Presentation
	TrackMin     *float64 `json:"track_min,omitempty" yaml:"track_min,omitempty"`
	TrackMax     *float64 `json:"track_max,omitempty" yaml:"track_max,omitempty"`
	CurvePadding *float64 `json:"curve_padding,omitempty" yaml:"curve_padding,omitempty"`

	// Outputs
	Renderers  []string `json:"renderers,omitempty" yaml:"renderers,omitempty"`
	ListenAddr *string  `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	GRPCAddr   *string  `json:"grpc_addr,omitempty" yaml:"grpc_addr,omitempty"`
	OutputDir  *string  `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	PNGStride  *int     `json:"png_stride,omitempty" yaml:"png_stride,omitempty"`
}

// Scene is a fully resolved, validated scene.
type Scene struct {
	Model kinematics.Cubic

	TMin float64
	TMax float64 `validate:"gtfield=TMin"`
	Dt   float64 `validate:"gt=0"`

	TrailCapacity int           `validate:"gt=0"`
	FrameInterval time.Duration `validate:"gt=0"`
	Repeat        bool

	TrackMin     float64
	TrackMax     float64 `validate:"gtfield=TrackMin"`
	CurvePadding float64 `validate:"gte=0"`

	Renderers  []string `validate:"min=1,dive,oneof=terminal png web grpc"`
	ListenAddr string   `validate:"required"`
	GRPCAddr   string   `validate:"required"`
	OutputDir  string   `validate:"required"`
	PNGStride  int      `validate:"gt=0"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySceneConfig returns a SceneConfig with every field unset.
func EmptySceneConfig() *SceneConfig {
	return &SceneConfig{}
}

// DefaultSceneConfig returns the reference scene with every field set:
// s(t) = 2t³ - 15t² + 24t - 5 over [0, 5] s in 0.05 s steps, 100 ms per frame.
func DefaultSceneConfig() *SceneConfig {
	return &SceneConfig{
		A:             ptrFloat64(2),
		B:             ptrFloat64(-15),
		C:             ptrFloat64(24),
		D:             ptrFloat64(-5),
		TMin:          ptrFloat64(0),
		TMax:          ptrFloat64(5),
		Dt:            ptrFloat64(0.05),
		TrailCapacity: ptrInt(animation.DefaultTrailCapacity),
		FrameInterval: ptrString("100ms"),
		Repeat:        ptrBool(true),
		TrackMin:      ptrFloat64(-25),
		TrackMax:      ptrFloat64(15),
		CurvePadding:  ptrFloat64(5),
		Renderers:     []string{RendererTerminal},
		ListenAddr:    ptrString("localhost:8080"),
		GRPCAddr:      ptrString("localhost:50051"),
		OutputDir:     ptrString("frames"),
		PNGStride:     ptrInt(1),
	}
}

// Load reads a SceneConfig from a .json, .yaml or .yml file and validates it.
func Load(path string) (*SceneConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySceneConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *SceneConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/render/plotimg/
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration resolves to a usable scene.
func (c *SceneConfig) Validate() error {
	_, err := c.Scene()
	return err
}

// Scene resolves every field (applying defaults) and validates the result.
func (c *SceneConfig) Scene() (Scene, error) {
	if c.FrameInterval != nil && *c.FrameInterval != "" {
		if _, err := time.ParseDuration(*c.FrameInterval); err != nil {
			return Scene{}, fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
	}

	s := Scene{
		Model:         c.GetModel(),
		TMin:          c.GetTMin(),
		TMax:          c.GetTMax(),
		Dt:            c.GetDt(),
		TrailCapacity: c.GetTrailCapacity(),
		FrameInterval: c.GetFrameInterval(),
		Repeat:        c.GetRepeat(),
		TrackMin:      c.GetTrackMin(),
		TrackMax:      c.GetTrackMax(),
		CurvePadding:  c.GetCurvePadding(),
		Renderers:     c.GetRenderers(),
		ListenAddr:    c.GetListenAddr(),
		GRPCAddr:      c.GetGRPCAddr(),
		OutputDir:     c.GetOutputDir(),
		PNGStride:     c.GetPNGStride(),
	}
	if err := validate.Struct(s); err != nil {
		return Scene{}, err
	}
	if _, err := s.TimeDomain(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// TimeDomain builds the animation time domain for the scene.
func (s Scene) TimeDomain() (animation.TimeDomain, error) {
	return animation.NewTimeDomain(s.TMin, s.TMax, s.Dt)
}

// HasRenderer reports whether name is in the renderers list.
func (s Scene) HasRenderer(name string) bool {
	for _, r := range s.Renderers {
		if r == name {
			return true
		}
	}
	return false
}

// GetModel returns the cubic built from a, b, c and d.
func (c *SceneConfig) GetModel() kinematics.Cubic {
	def := kinematics.DefaultCubic()
	return kinematics.Cubic{
		A: floatOr(c.A, def.A),
		B: floatOr(c.B, def.B),
		C: floatOr(c.C, def.C),
		D: floatOr(c.D, def.D),
	}
}

// GetTMin returns t_min or 0.
func (c *SceneConfig) GetTMin() float64 { return floatOr(c.TMin, 0) }

// GetTMax returns t_max or 5 s.
func (c *SceneConfig) GetTMax() float64 { return floatOr(c.TMax, 5) }

// GetDt returns dt or 0.05 s.
func (c *SceneConfig) GetDt() float64 { return floatOr(c.Dt, 0.05) }

// GetTrailCapacity returns trail_capacity or the engine default.
func (c *SceneConfig) GetTrailCapacity() int {
	if c.TrailCapacity == nil {
		return animation.DefaultTrailCapacity
	}
	return *c.TrailCapacity
}

// GetFrameInterval parses frame_interval, defaulting to 100ms.
func (c *SceneConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetRepeat returns repeat or true.
func (c *SceneConfig) GetRepeat() bool {
	if c.Repeat == nil {
		return true
	}
	return *c.Repeat
}

// GetTrackMin returns track_min or -25.
func (c *SceneConfig) GetTrackMin() float64 { return floatOr(c.TrackMin, -25) }

// GetTrackMax returns track_max or 15.
func (c *SceneConfig) GetTrackMax() float64 { return floatOr(c.TrackMax, 15) }

// GetCurvePadding returns curve_padding or 5.
func (c *SceneConfig) GetCurvePadding() float64 { return floatOr(c.CurvePadding, 5) }

// GetRenderers returns the renderer list or ["terminal"].
func (c *SceneConfig) GetRenderers() []string {
	if len(c.Renderers) == 0 {
		return []string{RendererTerminal}
	}
	out := make([]string, len(c.Renderers))
	for i, r := range c.Renderers {
		out[i] = strings.ToLower(strings.TrimSpace(r))
	}
	return out
}

// GetListenAddr returns listen_addr or localhost:8080.
func (c *SceneConfig) GetListenAddr() string { return stringOr(c.ListenAddr, "localhost:8080") }

// GetGRPCAddr returns grpc_addr or localhost:50051.
func (c *SceneConfig) GetGRPCAddr() string { return stringOr(c.GRPCAddr, "localhost:50051") }

// GetOutputDir returns output_dir or "frames".
func (c *SceneConfig) GetOutputDir() string { return stringOr(c.OutputDir, "frames") }

// GetPNGStride returns png_stride or 1.
func (c *SceneConfig) GetPNGStride() int {
	if c.PNGStride == nil {
		return 1
	}
	return *c.PNGStride
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
