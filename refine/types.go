// Package refine re-fits consensus-winning models by nonlinear least
// squares over exactly the inlier correspondences, optionally blended with
// soft "suggestion" priors, and optionally produces a parameter covariance.
//
// The Levenberg–Marquardt driver is github.com/maorshutman/lm with a
// numeric Jacobian. Two refiners are provided, both implementing
// consensus.Refiner:
//
//   - CameraRefiner — 12 parameters: fx, fy, skew, cx, cy, quaternion
//     (4), camera center (3). A soft unit-quaternion residual removes the
//     rotation gauge, so the Full-mode covariance is a 12×12 matrix over
//     the decomposed parameterization.
//   - RigidRefiner  — 7 parameters: quaternion (4), translation (3), with
//     the same gauge residual; covariance is 7×7.
//
// Suggestions: each enabled suggestion contributes residual terms
// w·(target − current). The weight w ramps from Ramp.Min to Ramp.Max in
// steps of Ramp.Step across LM sub-passes, warm-starting each pass, so the
// solution anneals from "trust the data" toward "trust the prior" without
// discontinuities. With every suggestion disabled the refinement reduces
// exactly to the plain data fit.
//
// Failure policy: a refiner error makes the consensus engine silently keep
// the unrefined model; a singular normal-equations matrix yields a nil
// covariance, never a fabricated one. Refinement never re-classifies
// inliers.
package refine

import (
	"errors"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Sentinel errors returned by the refine package.
var (
	// ErrSizeMismatch indicates parallel point sequences of unequal length.
	ErrSizeMismatch = errors.New("refine: point sequences differ in length")

	// ErrNoInliers indicates an empty (or too small) inlier index set.
	ErrNoInliers = errors.New("refine: not enough inliers to refine")

	// ErrBadRamp indicates an invalid suggestion weight ramp.
	ErrBadRamp = errors.New("refine: weight ramp requires 0 <= Min <= Max and Step > 0")

	// ErrBadMode indicates an unknown refinement mode.
	ErrBadMode = errors.New("refine: unsupported mode")

	// ErrDecompose indicates the winning model could not be decomposed
	// into the refinement parameterization.
	ErrDecompose = errors.New("refine: model decomposition failed")
)

// Mode selects the refinement depth.
type Mode uint8

const (
	// Fast runs few LM iterations and never computes a covariance.
	Fast Mode = iota

	// Full runs LM to tight tolerances and estimates the parameter
	// covariance from the normal equations at the solution.
	Full
)

// WeightRamp anneals the suggestion weight across LM sub-passes.
type WeightRamp struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultWeightRamp returns the canonical ramp: 0.1 → 2.0 by 0.475.
func DefaultWeightRamp() WeightRamp {
	return WeightRamp{Min: 0.1, Max: 2.0, Step: 0.475}
}

// valid reports structural sanity of the ramp.
func (w WeightRamp) valid() bool {
	return w.Min >= 0 && w.Max >= w.Min && w.Step > 0
}

// Suggestions is the set of independently toggleable soft targets blended
// into refinement. Camera refinement honors every field; rigid refinement
// honors Rotation (quaternion) and Center (interpreted as the translation
// target). Disabled fields contribute nothing.
type Suggestions struct {
	UseSkew bool
	Skew    float64

	UseFx bool
	Fx    float64

	UseFy bool
	Fy    float64

	UseAspectRatio bool
	AspectRatio    float64 // fy/fx

	UsePrincipalPoint bool
	PrincipalPoint    r2.Point

	UseRotation bool
	Rotation    [4]float64 // unit quaternion [w, x, y, z]

	UseCenter bool
	Center    r3.Vector

	Ramp WeightRamp
}

// DefaultSuggestions returns an all-disabled suggestion set with the
// default weight ramp.
func DefaultSuggestions() Suggestions {
	return Suggestions{Ramp: DefaultWeightRamp()}
}

// enabled reports whether any suggestion is switched on.
func (s Suggestions) enabled() bool {
	return s.UseSkew || s.UseFx || s.UseFy || s.UseAspectRatio ||
		s.UsePrincipalPoint || s.UseRotation || s.UseCenter
}
