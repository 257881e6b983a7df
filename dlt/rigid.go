package dlt

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/euclid"
)

// FitRigid estimates the rigid motion mapping in[i] onto out[i]
// (Kabsch/Umeyama): subtract centroids, SVD the 3×3 cross-covariance
// H = Σ (inᵢ−ī)(outᵢ−ō)ᵀ, take R = V·diag(1,1,det(V·Uᵀ))·Uᵀ (the diagonal
// term rules out reflections) and t = ō − R·ī.
//
// Unlike the null-vector solvers, every extra point tightens the
// closed-form least-squares solution directly, so surplus points are always
// accepted; AllowLMSE and Normalize are no-ops here.
//
// Errors: ErrSizeMismatch, ErrInsufficientPoints, ErrDegenerate (collinear
// or coincident points: cross-covariance rank < 2), ErrSVDFailed.
//
// Complexity: O(n) + a fixed 3×3 SVD.
func FitRigid(in, out []r3.Vector, o SolveOptions) (euclid.Transform, error) {
	if len(in) != len(out) {
		return euclid.Transform{}, ErrSizeMismatch
	}
	n := len(in)
	if n < MinRigidPoints {
		return euclid.Transform{}, ErrInsufficientPoints
	}

	var ci, co r3.Vector
	for i := 0; i < n; i++ {
		ci = ci.Add(in[i])
		co = co.Add(out[i])
	}
	ci = ci.Mul(1 / float64(n))
	co = co.Mul(1 / float64(n))

	h := mat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		var (
			p = in[i].Sub(ci)
			q = out[i].Sub(co)
		)
		h.Set(0, 0, h.At(0, 0)+p.X*q.X)
		h.Set(0, 1, h.At(0, 1)+p.X*q.Y)
		h.Set(0, 2, h.At(0, 2)+p.X*q.Z)
		h.Set(1, 0, h.At(1, 0)+p.Y*q.X)
		h.Set(1, 1, h.At(1, 1)+p.Y*q.Y)
		h.Set(1, 2, h.At(1, 2)+p.Y*q.Z)
		h.Set(2, 0, h.At(2, 0)+p.Z*q.X)
		h.Set(2, 1, h.At(2, 1)+p.Z*q.Y)
		h.Set(2, 2, h.At(2, 2)+p.Z*q.Z)
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return euclid.Transform{}, ErrSVDFailed
	}
	vals := svd.Values(nil)
	if vals[1] <= rankTol(o)*vals[0] || vals[0] == 0 {
		// Rotation about the common axis is unconstrained.
		return euclid.Transform{}, ErrDegenerate
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// R = V·D·Uᵀ with D correcting an improper (reflective) solution.
	var r mat.Dense
	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		d := mat.NewDiagDense(3, []float64{1, 1, -1})
		var tmp mat.Dense
		tmp.Mul(&v, d)
		r.Mul(&tmp, u.T())
	}

	rc := mat.NewVecDense(3, []float64{ci.X, ci.Y, ci.Z})
	var rci mat.VecDense
	rci.MulVec(&r, rc)
	t := r3.Vector{
		X: co.X - rci.AtVec(0),
		Y: co.Y - rci.AtVec(1),
		Z: co.Z - rci.AtVec(2),
	}

	return euclid.FromRotation(&r, t), nil
}
