// Package conic defines the conic-section model fitted by dlt.FitConic:
// the zero set of ax² + bxy + cy² + dx + ey + f over 2D points.
//
// Coefficients are homogeneous (defined up to scale); Normalized picks the
// unit-norm, sign-canonical representative so conics can be compared.
//
// Residuals: AlgebraicDistance is the raw polynomial value, SampsonDistance
// is the first-order geometric approximation |q(p)| / |∇q(p)| used as the
// consensus residual.
package conic

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

// ErrBadCoefficients indicates an all-zero coefficient vector, which
// describes no curve.
var ErrBadCoefficients = errors.New("conic: zero coefficient vector")

// Conic holds the six homogeneous coefficients [a, b, c, d, e, f].
type Conic struct {
	A, B, C, D, E, F float64
}

// New builds a Conic, rejecting the all-zero vector.
func New(a, b, c, d, e, f float64) (Conic, error) {
	if a == 0 && b == 0 && c == 0 && d == 0 && e == 0 && f == 0 {
		return Conic{}, ErrBadCoefficients
	}

	return Conic{A: a, B: b, C: c, D: d, E: e, F: f}, nil
}

// Eval returns ax² + bxy + cy² + dx + ey + f at p.
func (c Conic) Eval(p r2.Point) float64 {
	return c.A*p.X*p.X + c.B*p.X*p.Y + c.C*p.Y*p.Y + c.D*p.X + c.E*p.Y + c.F
}

// AlgebraicDistance is |Eval(p)|. Scale-dependent; prefer SampsonDistance
// when comparing against a geometric threshold.
func (c Conic) AlgebraicDistance(p r2.Point) float64 {
	return math.Abs(c.Eval(p))
}

// SampsonDistance is the first-order approximation of the geometric
// point-to-curve distance: |q(p)| / |∇q(p)|. Points at a gradient zero
// (the conic's center) fall back to the algebraic distance.
func (c Conic) SampsonDistance(p r2.Point) float64 {
	var (
		q  = c.Eval(p)
		gx = 2*c.A*p.X + c.B*p.Y + c.D
		gy = c.B*p.X + 2*c.C*p.Y + c.E
		g  = math.Hypot(gx, gy)
	)
	if g == 0 {
		return math.Abs(q)
	}

	return math.Abs(q) / g
}

// Normalized returns the unit-norm representative with the first non-zero
// coefficient positive.
func (c Conic) Normalized() Conic {
	v := [6]float64{c.A, c.B, c.C, c.D, c.E, c.F}
	n := 0.0
	for _, x := range v {
		n += x * x
	}
	n = math.Sqrt(n)
	if n == 0 {
		return c
	}
	s := 1 / n
	for _, x := range v {
		if x != 0 {
			if x < 0 {
				s = -s
			}
			break
		}
	}

	return Conic{A: v[0] * s, B: v[1] * s, C: v[2] * s, D: v[3] * s, E: v[4] * s, F: v[5] * s}
}
