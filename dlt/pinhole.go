package dlt

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/camera"
)

// FitCamera estimates a pinhole camera from 3D↔2D correspondences via the
// direct linear transform.
//
// Contracts:
//   - len(world) == len(image); exactly MinCameraPoints unless AllowLMSE.
//   - Each correspondence contributes two rows of the 2N×12 system
//     [Xᵀ 1  0   −x(Xᵀ 1)] / [0  Xᵀ 1  −y(Xᵀ 1)]; the camera is the
//     right null vector, reshaped 3×4.
//   - With Normalize, both point sets are Hartley-normalized and the result
//     de-normalized as P = T⁻¹·P̂·U.
//
// Errors: ErrSizeMismatch, ErrInsufficientPoints, ErrTooManyPoints,
// ErrDegenerate (rank < 11: coplanar or duplicated points), ErrSVDFailed.
//
// Complexity: O(n) assembly + an SVD of a 2n×12 matrix.
func FitCamera(world []r3.Vector, image []r2.Point, o SolveOptions) (camera.Camera, error) {
	if len(world) != len(image) {
		return camera.Camera{}, ErrSizeMismatch
	}
	n := len(world)
	if n < MinCameraPoints {
		return camera.Camera{}, ErrInsufficientPoints
	}
	if n > MinCameraPoints && !o.AllowLMSE {
		return camera.Camera{}, ErrTooManyPoints
	}

	var (
		w  = world
		im = image
		t  *mat.Dense // 2D similarity
		u  *mat.Dense // 3D similarity
	)
	if o.Normalize {
		im, t = normalizePoints2(image)
		w, u = normalizePoints3(world)
	}

	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		var (
			X, Y, Z = w[i].X, w[i].Y, w[i].Z
			x, y    = im[i].X, im[i].Y
		)
		a.SetRow(2*i, []float64{
			X, Y, Z, 1,
			0, 0, 0, 0,
			-x * X, -x * Y, -x * Z, -x,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, 0,
			X, Y, Z, 1,
			-y * X, -y * Y, -y * Z, -y,
		})
	}

	null, err := smallestRightSingular(a, 11, rankTol(o))
	if err != nil {
		return camera.Camera{}, err
	}
	p := mat.NewDense(3, 4, null)

	if o.Normalize {
		// P = T⁻¹ · P̂ · U.
		var tInv mat.Dense
		if err = tInv.Inverse(t); err != nil {
			return camera.Camera{}, ErrDegenerate
		}
		var tmp mat.Dense
		tmp.Mul(p, u)
		p.Mul(&tInv, &tmp)
	}

	cam, err := camera.FromMatrix(p)
	if err != nil {
		return camera.Camera{}, err
	}

	return cam.Normalized(), nil
}

// rankTol applies the default tolerance when the caller left it zero.
func rankTol(o SolveOptions) float64 {
	if o.RankTol > 0 {
		return o.RankTol
	}

	return DefaultSolveOptions().RankTol
}
