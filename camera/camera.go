package camera

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// New builds a Camera from 12 row-major values (p00 … p23).
//
// Complexity: O(1).
func New(vals []float64) (Camera, error) {
	if len(vals) != 12 {
		return Camera{}, ErrBadShape
	}
	d := make([]float64, 12)
	copy(d, vals)

	return Camera{p: mat.NewDense(3, 4, d)}, nil
}

// FromMatrix builds a Camera from a 3×4 dense matrix. The input is copied.
func FromMatrix(p *mat.Dense) (Camera, error) {
	if p == nil {
		return Camera{}, ErrBadShape
	}
	r, c := p.Dims()
	if r != 3 || c != 4 {
		return Camera{}, ErrBadShape
	}

	return Camera{p: mat.DenseCopyOf(p)}, nil
}

// FromKRC composes a Camera from intrinsics, a rotation and a center:
// P = K·[R | −R·C]. The rotation matrix is used as supplied; callers are
// expected to pass a proper rotation (det = +1).
func FromKRC(in Intrinsics, rot *mat.Dense, center r3.Vector) (Camera, error) {
	if rot == nil {
		return Camera{}, ErrBadShape
	}
	if r, c := rot.Dims(); r != 3 || c != 3 {
		return Camera{}, ErrBadShape
	}

	k := mat.NewDense(3, 3, []float64{
		in.Fx, in.Skew, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	})

	// t = −R·C
	cv := mat.NewVecDense(3, []float64{center.X, center.Y, center.Z})
	var t mat.VecDense
	t.MulVec(rot, cv)
	t.ScaleVec(-1, &t)

	// [R | t]
	rt := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(i, j, rot.At(i, j))
		}
		rt.Set(i, 3, t.AtVec(i))
	}

	p := mat.NewDense(3, 4, nil)
	p.Mul(k, rt)

	return Camera{p: p}, nil
}

// Matrix returns a copy of the 3×4 projection matrix.
func (c Camera) Matrix() *mat.Dense {
	return mat.DenseCopyOf(c.p)
}

// At returns the projection matrix entry at (row, col).
func (c Camera) At(row, col int) float64 { return c.p.At(row, col) }

// Valid reports whether the camera was constructed (non-zero value).
func (c Camera) Valid() bool { return c.p != nil }

// Project maps a 3D world point through the camera to a 2D image point.
// The homogeneous divide is performed unconditionally; points on the
// principal plane (w == 0) map to ±Inf coordinates, mirroring the algebra.
//
// Complexity: O(1).
func (c Camera) Project(w r3.Vector) r2.Point {
	var (
		x = c.p.At(0, 0)*w.X + c.p.At(0, 1)*w.Y + c.p.At(0, 2)*w.Z + c.p.At(0, 3)
		y = c.p.At(1, 0)*w.X + c.p.At(1, 1)*w.Y + c.p.At(1, 2)*w.Z + c.p.At(1, 3)
		z = c.p.At(2, 0)*w.X + c.p.At(2, 1)*w.Y + c.p.At(2, 2)*w.Z + c.p.At(2, 3)
	)

	return r2.Point{X: x / z, Y: y / z}
}

// ReprojectionError returns the Euclidean image distance between the
// projection of world and the observed image point.
func (c Camera) ReprojectionError(world r3.Vector, image r2.Point) float64 {
	pr := c.Project(world)

	return math.Hypot(pr.X-image.X, pr.Y-image.Y)
}

// Normalized returns a scale-canonical copy: unit Frobenius norm, with the
// sign chosen so that the determinant of the left 3×3 block is positive.
// Projective cameras are defined up to scale; canonicalizing makes direct
// matrix comparisons meaningful in tests and suggestion residuals.
func (c Camera) Normalized() Camera {
	n := mat.Norm(c.p, 2)
	out := mat.DenseCopyOf(c.p)
	if n != 0 {
		out.Scale(1/n, out)
	}
	if det := mat.Det(out.Slice(0, 3, 0, 3)); det < 0 {
		out.Scale(-1, out)
	}

	return Camera{p: out}
}
