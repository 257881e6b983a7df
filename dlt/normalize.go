package dlt

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// normalizePoints2 maps pts to centroid-centered coordinates with mean
// distance √2 and returns the transformed copy plus the 3×3 similarity T
// with x̂ = T·x. Hartley–Zisserman, Alg 4.2 (the same construction the
// eight-point algorithm uses).
//
// A coincident point set (zero mean distance) keeps scale 1 so the solver's
// rank check reports the degeneracy instead of a division blowing up here.
//
// Complexity: O(n).
func normalizePoints2(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	n := float64(len(pts))

	var mu r2.Point
	for _, p := range pts {
		mu.X += p.X
		mu.Y += p.Y
	}
	mu = mu.Mul(1 / n)

	d := 0.0
	for _, p := range pts {
		d += math.Hypot(p.X-mu.X, p.Y-mu.Y) / n
	}
	s := 1.0
	if d > 0 {
		s = math.Sqrt2 / d
	}

	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = r2.Point{X: s * (p.X - mu.X), Y: s * (p.Y - mu.Y)}
	}

	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * mu.X,
		0, s, -s * mu.Y,
		0, 0, 1,
	})

	return out, t
}

// normalizePoints3 is the 3D analogue of normalizePoints2: centroid
// translation, mean distance √3, 4×4 similarity U with X̂ = U·X.
//
// Complexity: O(n).
func normalizePoints3(pts []r3.Vector) ([]r3.Vector, *mat.Dense) {
	n := float64(len(pts))

	var mu r3.Vector
	for _, p := range pts {
		mu = mu.Add(p)
	}
	mu = mu.Mul(1 / n)

	d := 0.0
	for _, p := range pts {
		d += p.Sub(mu).Norm() / n
	}
	s := 1.0
	if d > 0 {
		s = math.Sqrt(3) / d
	}

	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(mu).Mul(s)
	}

	u := mat.NewDense(4, 4, []float64{
		s, 0, 0, -s * mu.X,
		0, s, 0, -s * mu.Y,
		0, 0, s, -s * mu.Z,
		0, 0, 0, 1,
	})

	return out, u
}

// smallestRightSingular factorizes a and returns its right singular vector
// of the smallest singular value, after verifying that the system's
// effective rank equals wantRank (the expected rank of a non-degenerate
// stacked DLT system, one less than the unknown count).
//
// Errors: ErrSVDFailed, ErrDegenerate.
func smallestRightSingular(a *mat.Dense, wantRank int, rankTol float64) ([]float64, error) {
	// Full V: a minimal-sample system has fewer rows than columns, and the
	// null vector only appears among the full right singular vectors.
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullV); !ok {
		return nil, ErrSVDFailed
	}

	vals := svd.Values(nil)
	tol := rankTol * vals[0]
	rank := 0
	for _, s := range vals {
		if s > tol {
			rank++
		}
	}
	if rank < wantRank {
		return nil, ErrDegenerate
	}

	var v mat.Dense
	svd.VTo(&v)
	_, c := v.Dims()

	null := make([]float64, wantRank+1)
	for i := range null {
		null[i] = v.At(i, c-1)
	}

	return null, nil
}
