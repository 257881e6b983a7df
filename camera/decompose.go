package camera

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// singTol is the relative tolerance below which the left 3×3 block is
// treated as singular during decomposition.
const singTol = 1e-12

// Decompose factors the camera as P = K·[R | −R·C] and returns the
// normalized intrinsics (K[2][2] == 1), the rotation and the center.
//
// Method: RQ decomposition of the left 3×3 block, built from gonum's QR via
// the row-exchange identity M = E·Rᵀ·Qᵀ, followed by a diagonal sign fix so
// that the focal entries are positive and det(R) == +1. The center is the
// solution of M·C = −p4.
//
// Errors: ErrDecompose when the left 3×3 block is singular.
//
// Complexity: O(1) (fixed 3×3 factorizations).
func (c Camera) Decompose() (Intrinsics, Extrinsics, error) {
	m := mat.DenseCopyOf(c.p.Slice(0, 3, 0, 3))

	det := mat.Det(m)
	if math.Abs(det) < singTol*math.Pow(mat.Norm(m, 2), 3) {
		return Intrinsics{}, Extrinsics{}, ErrDecompose
	}
	// Work with a positive-determinant copy so the sign fix below can keep
	// both diag(K) > 0 and det(R) == +1 simultaneously.
	sign := 1.0
	if det < 0 {
		sign = -1.0
		m.Scale(-1, m)
	}

	k, rot, err := rqDecompose(m)
	if err != nil {
		return Intrinsics{}, Extrinsics{}, err
	}

	// Normalize K to K[2][2] == 1.
	if s := k.At(2, 2); s != 0 {
		k.Scale(1/s, k)
	}

	// Center: M·C = −p4, using the original (unsigned) block so the
	// translation column matches.
	b := mat.NewVecDense(3, []float64{
		-sign * c.p.At(0, 3),
		-sign * c.p.At(1, 3),
		-sign * c.p.At(2, 3),
	})
	var cv mat.VecDense
	if err = cv.SolveVec(m, b); err != nil {
		return Intrinsics{}, Extrinsics{}, errors.Wrap(ErrDecompose, err.Error())
	}

	in := Intrinsics{
		Fx:   k.At(0, 0),
		Fy:   k.At(1, 1),
		Skew: k.At(0, 1),
		Cx:   k.At(0, 2),
		Cy:   k.At(1, 2),
	}
	ex := Extrinsics{
		R:      rot,
		Center: r3.Vector{X: cv.AtVec(0), Y: cv.AtVec(1), Z: cv.AtVec(2)},
	}

	return in, ex, nil
}

// rqDecompose splits a 3×3 matrix m into upper-triangular k and orthonormal
// rot with m == k·rot, diag(k) ≥ 0.
func rqDecompose(m *mat.Dense) (k, rot *mat.Dense, err error) {
	// A = (E·M)ᵀ with E the row-exchange permutation; then A = Q·Rq gives
	// M = E·Rqᵀ·Qᵀ, i.e. K = E·Rqᵀ·E and R = E·Qᵀ.
	e := mat.NewDense(3, 3, []float64{0, 0, 1, 0, 1, 0, 1, 0, 0})

	var a mat.Dense
	a.Mul(e, m)
	at := mat.DenseCopyOf(a.T())

	var qr mat.QR
	qr.Factorize(at)
	var q, rq mat.Dense
	qr.QTo(&q)
	qr.RTo(&rq)

	k = mat.NewDense(3, 3, nil)
	var tmp mat.Dense
	tmp.Mul(e, rq.T())
	k.Mul(&tmp, e)

	rot = mat.NewDense(3, 3, nil)
	rot.Mul(e, q.T())

	// Sign fix: force a positive diagonal onto K, folding the flips into R.
	for i := 0; i < 3; i++ {
		if k.At(i, i) < 0 {
			for j := 0; j < 3; j++ {
				k.Set(j, i, -k.At(j, i))
				rot.Set(i, j, -rot.At(i, j))
			}
		}
	}
	if k.At(0, 0) == 0 || k.At(1, 1) == 0 || k.At(2, 2) == 0 {
		return nil, nil, ErrDecompose
	}

	return k, rot, nil
}

// RotationToQuat converts a proper rotation matrix to a unit quaternion
// [w, x, y, z] with w ≥ 0 (Shepperd's method: pick the numerically largest
// component first).
func RotationToQuat(r *mat.Dense) [4]float64 {
	var q [4]float64
	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)

	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q[0] = 0.25 * s
		q[1] = (r.At(2, 1) - r.At(1, 2)) / s
		q[2] = (r.At(0, 2) - r.At(2, 0)) / s
		q[3] = (r.At(1, 0) - r.At(0, 1)) / s
	case r.At(0, 0) > r.At(1, 1) && r.At(0, 0) > r.At(2, 2):
		s := math.Sqrt(1+r.At(0, 0)-r.At(1, 1)-r.At(2, 2)) * 2
		q[0] = (r.At(2, 1) - r.At(1, 2)) / s
		q[1] = 0.25 * s
		q[2] = (r.At(0, 1) + r.At(1, 0)) / s
		q[3] = (r.At(0, 2) + r.At(2, 0)) / s
	case r.At(1, 1) > r.At(2, 2):
		s := math.Sqrt(1+r.At(1, 1)-r.At(0, 0)-r.At(2, 2)) * 2
		q[0] = (r.At(0, 2) - r.At(2, 0)) / s
		q[1] = (r.At(0, 1) + r.At(1, 0)) / s
		q[2] = 0.25 * s
		q[3] = (r.At(1, 2) + r.At(2, 1)) / s
	default:
		s := math.Sqrt(1+r.At(2, 2)-r.At(0, 0)-r.At(1, 1)) * 2
		q[0] = (r.At(1, 0) - r.At(0, 1)) / s
		q[1] = (r.At(0, 2) + r.At(2, 0)) / s
		q[2] = (r.At(1, 2) + r.At(2, 1)) / s
		q[3] = 0.25 * s
	}

	// Canonical sign: w ≥ 0 (q and −q encode the same rotation).
	if q[0] < 0 {
		for i := range q {
			q[i] = -q[i]
		}
	}

	return q
}

// QuatToRotation converts a quaternion [w, x, y, z] to a 3×3 rotation
// matrix. The quaternion is normalized first; a zero quaternion yields
// ErrBadQuaternion.
func QuatToRotation(q [4]float64) (*mat.Dense, error) {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return nil, ErrBadQuaternion
	}
	w, x, y, z := q[0]/n, q[1]/n, q[2]/n, q[3]/n

	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}), nil
}
