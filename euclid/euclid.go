// Package euclid defines the rigid (Euclidean) 3D transform model: a
// rotation plus a translation, parameterized as a unit quaternion and a
// 3-vector. It is the model type fitted by dlt.FitRigid and refined by
// refine.RigidRefiner.
//
// Parameter layout (Params/FromParams): [qw, qx, qy, qz, tx, ty, tz].
//
// Errors (sentinel):
//
//	– ErrBadQuaternion if a zero quaternion is supplied.
package euclid

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/camera"
)

// ErrBadQuaternion indicates a (near-)zero quaternion where a unit rotation
// quaternion was required.
var ErrBadQuaternion = errors.New("euclid: quaternion norm is zero")

// Transform is an immutable rigid 3D motion y = R·x + t.
type Transform struct {
	q [4]float64 // unit quaternion [w,x,y,z], w >= 0
	t r3.Vector
}

// New builds a Transform from a quaternion (normalized internally) and a
// translation. A zero quaternion is rejected.
func New(q [4]float64, t r3.Vector) (Transform, error) {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return Transform{}, ErrBadQuaternion
	}
	for i := range q {
		q[i] /= n
	}
	if q[0] < 0 {
		for i := range q {
			q[i] = -q[i]
		}
	}

	return Transform{q: q, t: t}, nil
}

// Identity returns the identity motion.
func Identity() Transform {
	return Transform{q: [4]float64{1, 0, 0, 0}}
}

// FromRotation builds a Transform from a rotation matrix and translation.
func FromRotation(r *mat.Dense, t r3.Vector) Transform {
	return Transform{q: camera.RotationToQuat(r), t: t}
}

// Quat returns the unit quaternion [w, x, y, z].
func (tr Transform) Quat() [4]float64 { return tr.q }

// Translation returns the translation component.
func (tr Transform) Translation() r3.Vector { return tr.t }

// Rotation materializes the 3×3 rotation matrix.
func (tr Transform) Rotation() *mat.Dense {
	r, _ := camera.QuatToRotation(tr.q) // unit by construction
	return r
}

// Apply maps a point through the motion: R·p + t.
func (tr Transform) Apply(p r3.Vector) r3.Vector {
	// Quaternion rotation p' = q·p·q*, expanded to avoid building the matrix.
	var (
		w, x, y, z = tr.q[0], tr.q[1], tr.q[2], tr.q[3]
		// v = q_vec × p
		vx = y*p.Z - z*p.Y
		vy = z*p.X - x*p.Z
		vz = x*p.Y - y*p.X
	)

	return r3.Vector{
		X: p.X + 2*(w*vx+(y*vz-z*vy)) + tr.t.X,
		Y: p.Y + 2*(w*vy+(z*vx-x*vz)) + tr.t.Y,
		Z: p.Z + 2*(w*vz+(x*vy-y*vx)) + tr.t.Z,
	}
}

// TransformError returns |R·in + t − out|.
func (tr Transform) TransformError(in, out r3.Vector) float64 {
	return tr.Apply(in).Sub(out).Norm()
}

// Compose returns the motion equivalent to applying other first, then tr.
func (tr Transform) Compose(other Transform) Transform {
	a, b := tr.q, other.q
	q := [4]float64{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
	out, _ := New(q, tr.Apply(other.t)) // t = R_a·t_b + t_a
	return out
}

// Inverse returns the motion undoing tr.
func (tr Transform) Inverse() Transform {
	inv := Transform{q: [4]float64{tr.q[0], -tr.q[1], -tr.q[2], -tr.q[3]}}
	it := inv.Apply(tr.t)
	inv.t = r3.Vector{X: -it.X, Y: -it.Y, Z: -it.Z}

	return inv
}

// Params returns the 7-vector [qw, qx, qy, qz, tx, ty, tz].
func (tr Transform) Params() [7]float64 {
	return [7]float64{tr.q[0], tr.q[1], tr.q[2], tr.q[3], tr.t.X, tr.t.Y, tr.t.Z}
}

// FromParams rebuilds a Transform from the 7-vector layout of Params.
func FromParams(p [7]float64) (Transform, error) {
	return New(
		[4]float64{p[0], p[1], p[2], p[3]},
		r3.Vector{X: p[4], Y: p[5], Z: p[6]},
	)
}
