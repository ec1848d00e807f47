// Package kinematics evaluates closed-form one-dimensional motion profiles.
//
// A profile gives position, velocity and acceleration as pure functions of time.
// The only profile shipped is Cubic, whose derivatives are computed analytically
// from the same four coefficients so the three curves can never disagree.
package kinematics

import (
	"fmt"
	"strings"
)

// Model is a closed-form motion profile along a single axis.
type Model interface {
	Position(t float64) float64
	Velocity(t float64) float64
	Acceleration(t float64) float64
}

// Cubic is the profile s(t) = A·t³ + B·t² + C·t + D.
type Cubic struct {
	A, B, C, D float64
}

var _ Model = Cubic{}

// DefaultCubic returns the reference profile s(t) = 2t³ - 15t² + 24t - 5.
func DefaultCubic() Cubic {
	return Cubic{A: 2, B: -15, C: 24, D: -5}
}

// Position evaluates s(t) in Horner form.
func (c Cubic) Position(t float64) float64 {
	return ((c.A*t+c.B)*t+c.C)*t + c.D
}

// Velocity evaluates s'(t) = 3A·t² + 2B·t + C.
func (c Cubic) Velocity(t float64) float64 {
	return (3*c.A*t+2*c.B)*t + c.C
}

// Acceleration evaluates s''(t) = 6A·t + 2B.
func (c Cubic) Acceleration(t float64) float64 {
	return 6*c.A*t + 2*c.B
}

// String renders the polynomial, e.g. "s(t) = 2t³ - 15t² + 24t - 5".
// Zero terms are omitted.
func (c Cubic) String() string {
	terms := []struct {
		coef float64
		pow  string
	}{
		{c.A, "t³"},
		{c.B, "t²"},
		{c.C, "t"},
		{c.D, ""},
	}

	var b strings.Builder
	b.WriteString("s(t) = ")
	first := true
	for _, term := range terms {
		if term.coef == 0 {
			continue
		}
		mag := term.coef
		switch {
		case first && mag < 0:
			b.WriteString("-")
			mag = -mag
		case !first && mag < 0:
			b.WriteString(" - ")
			mag = -mag
		case !first:
			b.WriteString(" + ")
		}
		if mag != 1 || term.pow == "" {
			b.WriteString(formatCoef(mag))
		}
		b.WriteString(term.pow)
		first = false
	}
	if first {
		b.WriteString("0")
	}
	return b.String()
}

func formatCoef(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
