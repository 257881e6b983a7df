package consensus

// Options configures one estimator. Build it before Estimate; the zero
// value is invalid — start from DefaultOptions.
//
// Threshold is the inlier residual bound for RANSAC/MSAC/PROSAC.
// StopThreshold is the early-termination median bound for LMedS/PROMedS.
// Confidence is the target probability of having drawn at least one
// all-inlier sample; the adaptive bound is derived from it.
// ProgressDelta suppresses OnProgress callbacks whose completion fraction
// advanced less than the delta since the previous notification.
// Seed drives all sampling; 0 selects a fixed default stream.
// AllowWeakMinimum admits correspondence counts down to the problem's
// WeakMinSampleSize. FailOnMaxIterations turns a cap-limited run without a
// met confidence bound into ErrIterationBudget instead of a soft
// Converged=false result. KeepInliers retains the winning classification
// snapshot on the estimator (the Inliers accessor) after the call; the
// Result always carries its own copy.
type Options struct {
	Method              Method
	Threshold           float64
	StopThreshold       float64
	Confidence          float64
	MaxIterations       int
	ProgressDelta       float64
	Seed                int64
	AllowWeakMinimum    bool
	FailOnMaxIterations bool
	KeepInliers         bool
	Refine              bool
}

// DefaultOptions returns the canonical starting configuration: RANSAC,
// 99% confidence, a hard cap of 5000 iterations, progress every 5%.
func DefaultOptions() Options {
	return Options{
		Method:        RANSAC,
		Threshold:     1.0,
		StopThreshold: 1e-3,
		Confidence:    0.99,
		MaxIterations: 5000,
		ProgressDelta: 0.05,
		Seed:          0,
		KeepInliers:   true,
	}
}

// validateOptions checks every field eagerly so Estimate never starts from
// a half-valid configuration. One sentinel per field keeps the failures
// branchable.
//
// Complexity: O(1).
func validateOptions(o Options) error {
	switch o.Method {
	case RANSAC, MSAC, LMedS, PROSAC, PROMedS:
		// ok
	default:
		return ErrBadMethod
	}
	if !o.Method.usesMedian() && o.Threshold <= 0 {
		return ErrBadThreshold
	}
	if o.Method.usesMedian() && o.StopThreshold <= 0 {
		return ErrBadStopThreshold
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		return ErrBadConfidence
	}
	if o.MaxIterations <= 0 {
		return ErrBadMaxIterations
	}
	if o.ProgressDelta < 0 || o.ProgressDelta > 1 {
		return ErrBadProgressDelta
	}

	return nil
}
