// Package consensus - selection criteria.
//
// A criterion reduces a candidate's residual vector to a comparable score
// and, for the winner, to an InliersData snapshot. Two families exist:
// threshold-count (RANSAC/MSAC/PROSAC) and median (LMedS/PROMedS).
package consensus

import (
	"math"
	"sort"
)

// score is the comparable fitness of one candidate.
type score struct {
	inliers int     // threshold family: count of residuals below the bound
	cost    float64 // MSAC truncated sum; RANSAC tie-break (inlier residual sum)
	median  float64 // median family: (weighted) median residual
}

// criterion scores candidates and materializes the winner's InliersData.
type criterion interface {
	// evaluate reduces a full residual vector to a score.
	evaluate(residuals []float64) score

	// better reports whether a beats b.
	better(a, b score) bool

	// inliers builds the snapshot for the winning residual vector. The
	// engine derives the adaptive bound's inlier ratio from this snapshot,
	// so both families feed the same formula.
	inliers(residuals []float64, s score) InliersData
}

// thresholdCriterion implements the RANSAC (count) and MSAC (truncated sum)
// rules under a fixed residual bound.
type thresholdCriterion struct {
	threshold float64
	truncated bool // MSAC
}

func (c thresholdCriterion) evaluate(residuals []float64) score {
	var s score
	for _, r := range residuals {
		if r < c.threshold {
			s.inliers++
			s.cost += r
		} else if c.truncated {
			s.cost += c.threshold
		}
	}

	return s
}

func (c thresholdCriterion) better(a, b score) bool {
	if c.truncated {
		// MSAC: lower truncated residual sum wins.
		return a.cost < b.cost
	}
	// RANSAC: more inliers; ties broken by lower inlier residual sum.
	if a.inliers != b.inliers {
		return a.inliers > b.inliers
	}

	return a.cost < b.cost
}

func (c thresholdCriterion) inliers(residuals []float64, s score) InliersData {
	d := InliersData{
		Mask:       make([]bool, len(residuals)),
		Residuals:  append([]float64(nil), residuals...),
		Threshold:  c.threshold,
		NumInliers: s.inliers,
	}
	for i, r := range residuals {
		d.Mask[i] = r < c.threshold
	}

	return d
}

// lmedsScaleFloor keeps the derived inlier threshold from collapsing to
// zero when the winning median itself is (numerically) zero.
const lmedsScaleFloor = 1e-12

// medianCriterion implements LMedS/PROMedS: lower (weighted) median residual
// wins. Residuals here are absolute distances, so the winning median feeds
// the standard robust scale estimate directly (the √ form applies to
// squared residuals):
//
//	σ = 1.4826·(1 + 5/(n−m))·median,  inlier ⇔ r ≤ 2.5σ.
type medianCriterion struct {
	weights    []float64 // nil ⇒ unweighted median
	sampleSize int       // m, for the scale correction term
}

func (c medianCriterion) evaluate(residuals []float64) score {
	var s score
	if c.weights == nil {
		s.median = plainMedian(residuals)
	} else {
		s.median = weightedMedian(residuals, c.weights)
	}
	s.cost = s.median

	return s
}

func (c medianCriterion) better(a, b score) bool { return a.median < b.median }

func (c medianCriterion) inliers(residuals []float64, s score) InliersData {
	n := len(residuals)
	denom := float64(n - c.sampleSize)
	if denom < 1 {
		denom = 1
	}
	sigma := 1.4826 * (1 + 5/denom) * s.median
	thr := 2.5 * sigma
	if thr < lmedsScaleFloor {
		thr = lmedsScaleFloor
	}

	d := InliersData{
		Mask:      make([]bool, n),
		Residuals: append([]float64(nil), residuals...),
		Threshold: thr,
		Median:    s.median,
	}
	for i, r := range residuals {
		if r <= thr {
			d.Mask[i] = true
			d.NumInliers++
		}
	}

	return d
}

// plainMedian returns the median of v without mutating it.
//
// Complexity: O(n log n).
func plainMedian(v []float64) float64 {
	n := len(v)
	if n == 0 {
		return math.Inf(1)
	}
	tmp := append([]float64(nil), v...)
	sort.Float64s(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}

	return 0.5 * (tmp[n/2-1] + tmp[n/2])
}

// weightedMedian returns the weighted median of v: the smallest value whose
// cumulative weight reaches half the total. Non-positive weights contribute
// nothing. Falls back to the plain median when the total weight vanishes.
//
// Complexity: O(n log n).
func weightedMedian(v, w []float64) float64 {
	n := len(v)
	if n == 0 {
		return math.Inf(1)
	}

	idx := make([]int, n)
	total := 0.0
	for i := range idx {
		idx[i] = i
		if w[i] > 0 {
			total += w[i]
		}
	}
	if total == 0 {
		return plainMedian(v)
	}
	sort.Slice(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	half := total / 2
	acc := 0.0
	for _, i := range idx {
		if w[i] > 0 {
			acc += w[i]
		}
		if acc >= half {
			return v[i]
		}
	}

	return v[idx[n-1]]
}
