package refine

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/euclid"
)

// RigidRefiner refines a rigid 3D motion over an inlier subset of its
// point pairs. Implements consensus.Refiner[euclid.Transform].
//
// Parameter vector: [qw, qx, qy, qz, tx, ty, tz]. Suggestions honored:
// Rotation (quaternion) and Center (the translation target); the remaining
// camera-specific fields are ignored.
type RigidRefiner struct {
	in, out []r3.Vector

	mode    Mode
	keepCov bool
	sugg    Suggestions
}

// NewRigidRefiner validates and builds a refiner over the full pair set.
func NewRigidRefiner(in, out []r3.Vector, mode Mode, keepCov bool, sugg Suggestions) (*RigidRefiner, error) {
	if len(in) != len(out) {
		return nil, ErrSizeMismatch
	}
	if mode != Fast && mode != Full {
		return nil, ErrBadMode
	}
	if !sugg.Ramp.valid() {
		return nil, ErrBadRamp
	}

	return &RigidRefiner{
		in:      append([]r3.Vector(nil), in...),
		out:     append([]r3.Vector(nil), out...),
		mode:    mode,
		keepCov: keepCov,
		sugg:    sugg,
	}, nil
}

// Refine re-estimates the motion by LM over the inlier pairs. Residuals:
// three alignment components per inlier, one quaternion gauge term, plus
// the weighted suggestion terms when enabled. The Full-mode covariance is
// 7×7 over the quaternion+translation parameterization.
func (r *RigidRefiner) Refine(model euclid.Transform, inliers []int) (euclid.Transform, *mat.SymDense, error) {
	if len(inliers) < 3 {
		return euclid.Transform{}, nil, ErrNoInliers
	}

	p := model.Params()
	x := p[:]

	dataSize := 3 * len(inliers)

	var err error
	if !r.sugg.enabled() {
		if x, err = runLM(r.residualFn(inliers, 0), x, dataSize+1, r.mode); err != nil {
			return euclid.Transform{}, nil, err
		}
	} else {
		size := dataSize + 1 + r.suggestionTerms()
		for _, w := range rampWeights(r.sugg.Ramp) {
			if x, err = runLM(r.residualFn(inliers, w), x, size, r.mode); err != nil {
				return euclid.Transform{}, nil, err
			}
		}
	}

	refined, err := euclid.FromParams([7]float64{x[0], x[1], x[2], x[3], x[4], x[5], x[6]})
	if err != nil {
		return euclid.Transform{}, nil, err
	}

	var cov *mat.SymDense
	if r.mode == Full && r.keepCov {
		// Gauge row included: without it JᵀJ is singular along the
		// quaternion scale for any data.
		cov = covariance(r.residualFn(inliers, 0), x, dataSize+1)
	}

	return refined, cov, nil
}

// suggestionTerms counts the residual components the enabled suggestions add.
func (r *RigidRefiner) suggestionTerms() int {
	n := 0
	if r.sugg.UseRotation {
		n += 4
	}
	if r.sugg.UseCenter {
		n += 3
	}

	return n
}

// dataResidualFn yields the pure alignment residuals (three per inlier).
func (r *RigidRefiner) dataResidualFn(inliers []int) residualFn {
	return func(dst, x []float64) {
		tr, err := euclid.FromParams([7]float64{x[0], x[1], x[2], x[3], x[4], x[5], x[6]})
		if err != nil {
			for i := range dst {
				dst[i] = 1e12
			}
			return
		}
		for k, idx := range inliers {
			m := tr.Apply(r.in[idx])
			dst[3*k] = m.X - r.out[idx].X
			dst[3*k+1] = m.Y - r.out[idx].Y
			dst[3*k+2] = m.Z - r.out[idx].Z
		}
	}
}

// residualFn stacks data residuals, the gauge term and the weighted
// suggestion terms at suggestion weight w.
func (r *RigidRefiner) residualFn(inliers []int, w float64) residualFn {
	data := r.dataResidualFn(inliers)
	dataSize := 3 * len(inliers)

	return func(dst, x []float64) {
		data(dst[:dataSize], x)

		qn := x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3]
		dst[dataSize] = quatGaugeWeight * (qn - 1)

		if w == 0 {
			return
		}
		i := dataSize + 1
		if r.sugg.UseRotation {
			q := []float64{x[0], x[1], x[2], x[3]}
			alignQuatSign(q, r.sugg.Rotation)
			for k := 0; k < 4; k++ {
				dst[i+k] = w * (r.sugg.Rotation[k] - q[k])
			}
			i += 4
		}
		if r.sugg.UseCenter {
			dst[i] = w * (r.sugg.Center.X - x[4])
			dst[i+1] = w * (r.sugg.Center.Y - x[5])
			dst[i+2] = w * (r.sugg.Center.Z - x[6])
		}
	}
}
