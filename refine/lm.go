package refine

import (
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// quatGaugeWeight scales the soft |q|²−1 residual that pins the quaternion
// scale gauge. Large enough to dominate the gauge direction, small enough
// not to distort the data fit.
const quatGaugeWeight = 10.0

// residualFn fills dst (length size) with residuals at parameters x.
type residualFn func(dst, x []float64)

// runLM executes one Levenberg–Marquardt pass with a numeric Jacobian,
// warm-starting from init. Returns the refined parameter vector.
//
// Damping and convergence constants follow the usual calibration setup:
// Tau 1e-6, Eps1/Eps2 1e-8, iteration budget by mode.
func runLM(fn residualFn, init []float64, size int, mode Mode) ([]float64, error) {
	jac := lm.NumJac{Func: fn}

	prob := lm.LMProblem{
		Dim:        len(init),
		Size:       size,
		Func:       fn,
		Jac:        jac.Jac,
		InitParams: init,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	settings := &lm.Settings{Iterations: 100, ObjectiveTol: 1e-16}
	if mode == Fast {
		settings = &lm.Settings{Iterations: 20, ObjectiveTol: 1e-12}
	}

	res, err := lm.LM(prob, settings)
	if err != nil {
		return nil, err
	}

	return res.X, nil
}

// covariance estimates the parameter covariance at the solution x:
// σ²·(JᵀJ)⁻¹ with σ² = RSS/(size − dim), J evaluated numerically over the
// supplied residual system. Callers must pass a system that includes the
// quaternion gauge row: the data residuals are invariant along the
// quaternion-scale direction (the model constructors normalize), so the
// data-only JᵀJ is rank-deficient by construction and only the gauge row
// pins that direction. A singular normal-equations matrix yields nil: the
// caller reports the covariance as absent rather than fabricating one.
func covariance(fn residualFn, x []float64, size int) *mat.SymDense {
	dim := len(x)
	if size <= dim {
		return nil
	}

	jac := lm.NumJac{Func: fn}
	j := mat.NewDense(size, dim, nil)
	jac.Jac(j, x)

	var n mat.Dense
	n.Mul(j.T(), j)

	var inv mat.Dense
	if err := inv.Inverse(&n); err != nil {
		return nil
	}

	res := make([]float64, size)
	fn(res, x)
	rss := 0.0
	for _, r := range res {
		rss += r * r
	}
	sigma2 := rss / float64(size-dim)

	// Symmetrize: the numeric inverse can drift off symmetric by rounding.
	out := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for k := i; k < dim; k++ {
			v := 0.5 * (inv.At(i, k) + inv.At(k, i)) * sigma2
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil
			}
			out.SetSym(i, k, v)
		}
	}

	return out
}

// rampWeights materializes the annealing schedule Min, Min+Step, …,
// clamped so the final pass runs exactly at Max.
func rampWeights(r WeightRamp) []float64 {
	var ws []float64
	for w := r.Min; w < r.Max; w += r.Step {
		ws = append(ws, w)
	}

	return append(ws, r.Max)
}

// alignQuatSign flips q in place when it points away from ref; q and −q
// encode the same rotation, and suggestion residuals must compare the
// nearer representative.
func alignQuatSign(q []float64, ref [4]float64) {
	dot := q[0]*ref[0] + q[1]*ref[1] + q[2]*ref[2] + q[3]*ref[3]
	if dot < 0 {
		for i := 0; i < 4; i++ {
			q[i] = -q[i]
		}
	}
}
