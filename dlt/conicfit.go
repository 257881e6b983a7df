package dlt

import (
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/conic"
)

// FitConic estimates the conic through the given points: one row
// [x² xy y² x y 1] per point, N×6 right null vector.
//
// Contracts: exactly MinConicPoints unless AllowLMSE. With Normalize, the
// fit runs in Hartley-normalized coordinates and the conic is pulled back
// via Ĉ's matrix form: C = Tᵀ·Ĉ·T.
//
// Errors: ErrInsufficientPoints, ErrTooManyPoints, ErrDegenerate (4+
// collinear or duplicated points), ErrSVDFailed.
func FitConic(pts []r2.Point, o SolveOptions) (conic.Conic, error) {
	n := len(pts)
	if n < MinConicPoints {
		return conic.Conic{}, ErrInsufficientPoints
	}
	if n > MinConicPoints && !o.AllowLMSE {
		return conic.Conic{}, ErrTooManyPoints
	}

	var (
		p = pts
		t *mat.Dense
	)
	if o.Normalize {
		p, t = normalizePoints2(pts)
	}

	a := mat.NewDense(n, 6, nil)
	for i := 0; i < n; i++ {
		x, y := p[i].X, p[i].Y
		a.SetRow(i, []float64{x * x, x * y, y * y, x, y, 1})
	}

	null, err := smallestRightSingular(a, 5, rankTol(o))
	if err != nil {
		return conic.Conic{}, err
	}

	if o.Normalize {
		// Conic matrix form: Ĉ = [a b/2 d/2; b/2 c e/2; d/2 e/2 f];
		// with x̂ = T·x, x̂ᵀĈx̂ = xᵀ(TᵀĈT)x, so C = TᵀĈT.
		ch := mat.NewDense(3, 3, []float64{
			null[0], null[1] / 2, null[3] / 2,
			null[1] / 2, null[2], null[4] / 2,
			null[3] / 2, null[4] / 2, null[5],
		})
		var tmp, cd mat.Dense
		tmp.Mul(ch, t)
		cd.Mul(t.T(), &tmp)
		null = []float64{
			cd.At(0, 0), 2 * cd.At(0, 1), cd.At(1, 1),
			2 * cd.At(0, 2), 2 * cd.At(1, 2), cd.At(2, 2),
		}
	}

	c, err := conic.New(null[0], null[1], null[2], null[3], null[4], null[5])
	if err != nil {
		return conic.Conic{}, ErrDegenerate
	}

	return c.Normalized(), nil
}
