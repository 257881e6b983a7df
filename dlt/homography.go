package dlt

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// Homography is an immutable 3×3 plane-projective transform mapping source
// image points to destination image points.
type Homography struct {
	h *mat.Dense
}

// HomographyFromMatrix copies a 3×3 matrix into a Homography.
func HomographyFromMatrix(h *mat.Dense) (Homography, error) {
	if h == nil {
		return Homography{}, ErrSizeMismatch
	}
	if r, c := h.Dims(); r != 3 || c != 3 {
		return Homography{}, ErrSizeMismatch
	}

	return Homography{h: mat.DenseCopyOf(h)}, nil
}

// At returns the matrix entry at (row, col).
func (h Homography) At(row, col int) float64 { return h.h.At(row, col) }

// Matrix returns a copy of the 3×3 matrix.
func (h Homography) Matrix() *mat.Dense { return mat.DenseCopyOf(h.h) }

// Apply maps a source point through the homography.
func (h Homography) Apply(p r2.Point) r2.Point {
	var (
		x = h.h.At(0, 0)*p.X + h.h.At(0, 1)*p.Y + h.h.At(0, 2)
		y = h.h.At(1, 0)*p.X + h.h.At(1, 1)*p.Y + h.h.At(1, 2)
		z = h.h.At(2, 0)*p.X + h.h.At(2, 1)*p.Y + h.h.At(2, 2)
	)

	return r2.Point{X: x / z, Y: y / z}
}

// TransferError is the forward transfer distance |H·src − dst|.
func (h Homography) TransferError(src, dst r2.Point) float64 {
	m := h.Apply(src)

	return math.Hypot(m.X-dst.X, m.Y-dst.Y)
}

// FitHomography estimates a 2D homography from point pairs (Hartley &
// Zisserman, Alg 4.1): two stacked rows per pair,
//
//	[−x −y −1  0  0  0  x′x x′y x′]
//	[ 0  0  0 −x −y −1  y′x y′y y′]
//
// solved for the 2N×9 right null vector.
//
// Contracts: len(src) == len(dst); exactly MinHomographyPoints unless
// AllowLMSE; with Normalize, H = T₂⁻¹·Ĥ·T₁.
//
// Errors: ErrSizeMismatch, ErrInsufficientPoints, ErrTooManyPoints,
// ErrDegenerate (3+ collinear points), ErrSVDFailed.
func FitHomography(src, dst []r2.Point, o SolveOptions) (Homography, error) {
	if len(src) != len(dst) {
		return Homography{}, ErrSizeMismatch
	}
	n := len(src)
	if n < MinHomographyPoints {
		return Homography{}, ErrInsufficientPoints
	}
	if n > MinHomographyPoints && !o.AllowLMSE {
		return Homography{}, ErrTooManyPoints
	}

	var (
		s, d   = src, dst
		t1, t2 *mat.Dense
	)
	if o.Normalize {
		s, t1 = normalizePoints2(src)
		d, t2 = normalizePoints2(dst)
	}

	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		var (
			x, y   = s[i].X, s[i].Y
			xp, yp = d[i].X, d[i].Y
		)
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, xp * x, xp * y, xp})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, yp * x, yp * y, yp})
	}

	null, err := smallestRightSingular(a, 8, rankTol(o))
	if err != nil {
		return Homography{}, err
	}
	h := mat.NewDense(3, 3, null)

	if o.Normalize {
		var t2Inv mat.Dense
		if err = t2Inv.Inverse(t2); err != nil {
			return Homography{}, ErrDegenerate
		}
		var tmp mat.Dense
		tmp.Mul(h, t1)
		h.Mul(&t2Inv, &tmp)
	}

	// Scale-canonical: H[2][2] == 1 when possible.
	if v := h.At(2, 2); v != 0 {
		h.Scale(1/v, h)
	}

	return Homography{h: h}, nil
}
