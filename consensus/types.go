package consensus

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Sentinel errors returned by the consensus package.
var (
	// ErrNilProblem indicates a nil Problem was supplied.
	ErrNilProblem = errors.New("consensus: problem is nil")

	// ErrInsufficientData indicates fewer correspondences than the model's
	// (weak-)minimum sample size.
	ErrInsufficientData = errors.New("consensus: not enough correspondences")

	// ErrScoresRequired indicates a quality-guided method (PROSAC/PROMedS)
	// was selected without quality scores.
	ErrScoresRequired = errors.New("consensus: method requires quality scores")

	// ErrScoreMismatch indicates len(scores) differs from the
	// correspondence count.
	ErrScoreMismatch = errors.New("consensus: quality score length mismatch")

	// ErrLocked indicates a mutating call while an Estimate is in flight.
	ErrLocked = errors.New("consensus: estimator is locked during Estimate")

	// ErrEstimationFailed indicates no acceptable candidate was ever found.
	ErrEstimationFailed = errors.New("consensus: no acceptable model found")

	// ErrIterationBudget indicates the hard iteration cap was reached
	// before the confidence bound, with FailOnMaxIterations set.
	ErrIterationBudget = errors.New("consensus: iteration cap reached before confidence bound")

	// ErrBadMethod indicates an unknown Method value.
	ErrBadMethod = errors.New("consensus: unsupported method")

	// ErrBadThreshold indicates Threshold <= 0.
	ErrBadThreshold = errors.New("consensus: threshold must be positive")

	// ErrBadStopThreshold indicates StopThreshold <= 0.
	ErrBadStopThreshold = errors.New("consensus: stop threshold must be positive")

	// ErrBadConfidence indicates Confidence outside the open interval (0, 1).
	ErrBadConfidence = errors.New("consensus: confidence must be in (0, 1)")

	// ErrBadMaxIterations indicates MaxIterations <= 0.
	ErrBadMaxIterations = errors.New("consensus: max iterations must be positive")

	// ErrBadProgressDelta indicates ProgressDelta outside [0, 1].
	ErrBadProgressDelta = errors.New("consensus: progress delta must be in [0, 1]")
)

// Method selects the consensus algorithm variant. Variants are
// compositions of a sampler and a selection criterion over the same loop.
type Method uint8

const (
	// RANSAC maximizes the inlier count under a fixed residual threshold.
	RANSAC Method = iota

	// MSAC minimizes the threshold-truncated residual sum.
	MSAC

	// LMedS minimizes the median residual; no threshold needed.
	LMedS

	// PROSAC is RANSAC with quality-score-progressive sampling.
	PROSAC

	// PROMedS is LMedS with quality-score-progressive sampling and a
	// quality-weighted median.
	PROMedS
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case RANSAC:
		return "RANSAC"
	case MSAC:
		return "MSAC"
	case LMedS:
		return "LMedS"
	case PROSAC:
		return "PROSAC"
	case PROMedS:
		return "PROMedS"
	default:
		return "unknown"
	}
}

// usesScores reports whether the method requires quality scores.
func (m Method) usesScores() bool { return m == PROSAC || m == PROMedS }

// usesMedian reports whether the method ranks candidates by median residual.
func (m Method) usesMedian() bool { return m == LMedS || m == PROMedS }

// State is the estimator lifecycle state.
type State uint8

const (
	// StateIdle allows mutation; Estimate may be called.
	StateIdle State = iota

	// StateEstimating rejects every mutating call with ErrLocked.
	StateEstimating
)

// Problem is the model-fitting capability the engine is generic over.
//
// Len returns the number of correspondences. MinSampleSize is the minimal
// subset cardinality for an exact fit; WeakMinSampleSize is the smallest
// correspondence count the solver can work with at all (equal to
// MinSampleSize when no weaker form exists) and is honored only when
// Options.AllowWeakMinimum is set. Fit solves over the given index subset;
// a geometrically degenerate subset must return an error, which the engine
// treats as a skipped iteration. Residual evaluates one correspondence
// against a candidate model; it must be non-negative.
type Problem[M any] interface {
	Len() int
	MinSampleSize() int
	WeakMinSampleSize() int
	Fit(indices []int) (M, error)
	Residual(model M, i int) float64
}

// Refiner re-fits a model over the winning inlier indices, optionally
// producing a parameter covariance. A nil covariance with a nil error means
// the refinement succeeded but the covariance was unavailable (singular
// normal equations). A non-nil error makes the engine silently keep the
// unrefined consensus model.
type Refiner[M any] interface {
	Refine(model M, inliers []int) (M, *mat.SymDense, error)
}

// InliersData is the immutable per-call snapshot of the winning candidate's
// classification. It is produced once per successful Estimate and owned by
// the estimator until the next call replaces it.
type InliersData struct {
	// Mask marks inlier correspondences.
	Mask []bool

	// NumInliers is the count of set entries in Mask.
	NumInliers int

	// Residuals holds the winning model's residual per correspondence.
	Residuals []float64

	// Threshold is the effective inlier threshold: the configured one for
	// the threshold criteria, the robust-scale-derived one for the median
	// criteria.
	Threshold float64

	// Median is the winning median residual (median criteria only; zero
	// otherwise).
	Median float64
}

// Progress is the immutable record passed to callbacks. It carries no
// reference to the estimator; read estimator state through the estimator
// itself (reads are safe during callbacks, mutation is not).
type Progress struct {
	Method         Method
	Iteration      int     // 1-based loop pass, 0 on start
	IterationBound int     // current adaptive bound (≤ MaxIterations)
	BestInliers    int     // inlier count of the best candidate so far
	Fraction       float64 // monotone completion estimate in [0, 1]
}

// Callbacks bundles the four synchronous notifications. Any field may be
// nil. OnIteration fires once per loop pass; OnProgress fires only when the
// completion fraction advanced by at least Options.ProgressDelta.
type Callbacks struct {
	OnStart     func(Progress)
	OnEnd       func(Progress)
	OnIteration func(Progress)
	OnProgress  func(Progress)
}

// Result is the outcome of a successful Estimate.
type Result[M any] struct {
	// Model is the winning (possibly refined) model.
	Model M

	// Refined reports whether the refinement stage replaced the raw
	// consensus model.
	Refined bool

	// Inliers is the winning candidate's classification snapshot. The
	// refinement stage never re-classifies, so the mask always reflects
	// the consensus model.
	Inliers InliersData

	// Covariance is the refined model's parameter covariance, nil unless a
	// Refiner ran in a covariance-producing mode and its normal equations
	// were non-singular.
	Covariance *mat.SymDense

	// Iterations is the number of loop passes executed.
	Iterations int

	// Converged reports whether the adaptive confidence bound was met
	// before the hard cap (or an early median stop fired).
	Converged bool
}
