package visualiser

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/kinematics"
)

// SceneInfo describes the animated scene for remote viewers.
type SceneInfo struct {
	Formula       string  `json:"formula"`
	A             float64 `json:"a"`
	B             float64 `json:"b"`
	C             float64 `json:"c"`
	D             float64 `json:"d"`
	TMin          float64 `json:"t_min"`
	TMax          float64 `json:"t_max"`
	Dt            float64 `json:"dt"`
	TrailCapacity int     `json:"trail_capacity"`
	FrameCount    int     `json:"frame_count"`
	TrackMin      float64 `json:"track_min"`
	TrackMax      float64 `json:"track_max"`
}

// NewSceneInfo captures the engine's scene. Coefficients are filled in when
// the model is a kinematics.Cubic.
func NewSceneInfo(e *animation.Engine, trackMin, trackMax float64) SceneInfo {
	d := e.Domain()
	info := SceneInfo{
		TMin:          d.TMin,
		TMax:          d.TMax,
		Dt:            d.Dt,
		TrailCapacity: e.TrailCap(),
		FrameCount:    e.FrameCount(),
		TrackMin:      trackMin,
		TrackMax:      trackMax,
	}
	if s, ok := e.Model().(fmt.Stringer); ok {
		info.Formula = s.String()
	}
	if c, ok := e.Model().(kinematics.Cubic); ok {
		info.A, info.B, info.C, info.D = c.A, c.B, c.C, c.D
	}
	return info
}

// ToStruct encodes the scene for the GetScene RPC.
func (s SceneInfo) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"formula":        s.Formula,
		"a":              s.A,
		"b":              s.B,
		"c":              s.C,
		"d":              s.D,
		"t_min":          s.TMin,
		"t_max":          s.TMax,
		"dt":             s.Dt,
		"trail_capacity": s.TrailCapacity,
		"frame_count":    s.FrameCount,
		"track_min":      s.TrackMin,
		"track_max":      s.TrackMax,
	})
}

// FrameToStruct encodes u using the same keys as its JSON form. The trail is
// omitted when includeTrail is false.
func FrameToStruct(u animation.FrameUpdate, includeTrail bool) (*structpb.Struct, error) {
	fields := map[string]any{
		"frame":        u.Frame,
		"t":            u.Time,
		"position":     u.Position,
		"velocity":     u.Velocity,
		"acceleration": u.Acceleration,
		"terminated":   u.Terminated,
	}
	if includeTrail {
		trail := make([]any, len(u.Trail))
		for i, x := range u.Trail {
			trail[i] = x
		}
		fields["trail"] = trail
	}
	return structpb.NewStruct(fields)
}

// FrameFromStruct decodes a Struct produced by FrameToStruct.
func FrameFromStruct(s *structpb.Struct) (animation.FrameUpdate, error) {
	var u animation.FrameUpdate
	fields := s.GetFields()
	for _, key := range []string{"frame", "t", "position", "velocity", "acceleration"} {
		v, ok := fields[key]
		if !ok {
			return u, fmt.Errorf("frame struct: missing %q", key)
		}
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
			return u, fmt.Errorf("frame struct: %q is not a number", key)
		}
	}

	u.Frame = int(fields["frame"].GetNumberValue())
	u.Time = fields["t"].GetNumberValue()
	u.Position = fields["position"].GetNumberValue()
	u.Velocity = fields["velocity"].GetNumberValue()
	u.Acceleration = fields["acceleration"].GetNumberValue()
	u.Terminated = fields["terminated"].GetBoolValue()

	if trail := fields["trail"].GetListValue(); trail != nil {
		u.Trail = make([]float64, len(trail.GetValues()))
		for i, v := range trail.GetValues() {
			u.Trail[i] = v.GetNumberValue()
		}
	}
	return u, nil
}
