package consensus

import (
	"math"

	"github.com/katalvlaran/robustfit/sample"
)

// Estimator runs the sample-consensus loop for one Problem. It owns the
// correspondence problem, the optional quality scores, the callbacks and
// the last InliersData snapshot. Not safe for concurrent use; the internal
// state machine guards reentrant mutation from callbacks only.
type Estimator[M any] struct {
	opts    Options
	prob    Problem[M]
	scores  []float64
	cb      Callbacks
	refiner Refiner[M]

	state State
	last  *InliersData
}

// New validates the options eagerly and returns an Idle estimator.
// The problem may be nil at construction and supplied later via SetProblem;
// Estimate checks readiness either way.
func New[M any](prob Problem[M], opts Options) (*Estimator[M], error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	return &Estimator[M]{opts: opts, prob: prob}, nil
}

// State returns the current lifecycle state. Safe to call from callbacks.
func (e *Estimator[M]) State() State { return e.state }

// Options returns the current configuration (by value).
func (e *Estimator[M]) Options() Options { return e.opts }

// Inliers returns the snapshot produced by the most recent successful
// Estimate, or nil (never run, or KeepInliers disabled). The snapshot is
// replaced, never mutated, by later calls.
func (e *Estimator[M]) Inliers() *InliersData { return e.last }

// Ready reports whether Estimate's preconditions currently hold.
func (e *Estimator[M]) Ready() bool { return e.checkReady() == nil }

// SetProblem replaces the correspondence problem. ErrLocked during Estimate.
func (e *Estimator[M]) SetProblem(p Problem[M]) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	e.prob = p

	return nil
}

// SetQualityScores replaces the per-correspondence quality scores (higher
// is better). Length is validated against the problem at Estimate entry,
// so scores may be set before the problem. ErrLocked during Estimate.
func (e *Estimator[M]) SetQualityScores(scores []float64) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	e.scores = append([]float64(nil), scores...)

	return nil
}

// SetCallbacks replaces the notification callbacks. ErrLocked during Estimate.
func (e *Estimator[M]) SetCallbacks(cb Callbacks) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	e.cb = cb

	return nil
}

// SetRefiner replaces the refinement hook. ErrLocked during Estimate.
func (e *Estimator[M]) SetRefiner(r Refiner[M]) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	e.refiner = r

	return nil
}

// SetOptions replaces the whole configuration after validation.
// ErrLocked during Estimate.
func (e *Estimator[M]) SetOptions(o Options) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if err := validateOptions(o); err != nil {
		return err
	}
	e.opts = o

	return nil
}

// SetConfidence updates the confidence target; must lie in (0, 1).
func (e *Estimator[M]) SetConfidence(c float64) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if c <= 0 || c >= 1 {
		return ErrBadConfidence
	}
	e.opts.Confidence = c

	return nil
}

// SetThreshold updates the inlier residual threshold; must be positive.
func (e *Estimator[M]) SetThreshold(t float64) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if t <= 0 {
		return ErrBadThreshold
	}
	e.opts.Threshold = t

	return nil
}

// SetStopThreshold updates the median early-stop bound; must be positive.
func (e *Estimator[M]) SetStopThreshold(t float64) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if t <= 0 {
		return ErrBadStopThreshold
	}
	e.opts.StopThreshold = t

	return nil
}

// SetMaxIterations updates the hard iteration cap; must be positive.
func (e *Estimator[M]) SetMaxIterations(n int) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if n <= 0 {
		return ErrBadMaxIterations
	}
	e.opts.MaxIterations = n

	return nil
}

// SetProgressDelta updates the progress notification granularity in [0, 1].
func (e *Estimator[M]) SetProgressDelta(d float64) error {
	if e.state == StateEstimating {
		return ErrLocked
	}
	if d < 0 || d > 1 {
		return ErrBadProgressDelta
	}
	e.opts.ProgressDelta = d

	return nil
}

// checkReady validates Estimate's preconditions without touching state.
func (e *Estimator[M]) checkReady() error {
	if e.prob == nil {
		return ErrNilProblem
	}
	n := e.prob.Len()
	minSize := e.prob.MinSampleSize()
	if e.opts.AllowWeakMinimum {
		minSize = e.prob.WeakMinSampleSize()
	}
	if n < minSize {
		return ErrInsufficientData
	}
	if e.opts.Method.usesScores() && e.scores == nil {
		return ErrScoresRequired
	}
	if e.scores != nil && len(e.scores) != n {
		return ErrScoreMismatch
	}

	return nil
}

// Estimate runs the consensus loop to completion on the calling goroutine.
//
// Contracts:
//   - Preconditions are checked before any state transition (ErrNilProblem,
//     ErrInsufficientData, ErrScoresRequired, ErrScoreMismatch).
//   - The Idle→Estimating→Idle transition is exception-safe: the state is
//     restored by defer even if problem code panics.
//   - Callbacks fire synchronously between the transitions; mutating the
//     estimator from a callback yields ErrLocked.
//
// Errors: ErrEstimationFailed when no acceptable candidate was found;
// ErrIterationBudget when the hard cap preempted the confidence bound and
// FailOnMaxIterations is set.
//
// Complexity: O(k·(fit + n·residual)) for k executed iterations.
func (e *Estimator[M]) Estimate() (Result[M], error) {
	if err := e.checkReady(); err != nil {
		return Result[M]{}, err
	}

	var (
		n       = e.prob.Len()
		m       = e.prob.MinSampleSize()
		sampler sample.Sampler
	)
	// Weak-minimum sets cannot yield a full minimal subset; fall back to
	// fitting over everything we have, each iteration.
	if m > n {
		m = n
	}

	if e.opts.Method.usesScores() {
		sampler = sample.NewProgressive(e.scores, e.opts.Seed)
	} else {
		sampler = sample.NewUniform(e.opts.Seed)
	}
	if err := sampler.Init(n, m); err != nil {
		return Result[M]{}, err
	}

	crit := e.criterion(m)

	e.state = StateEstimating
	defer func() { e.state = StateIdle }()

	e.notifyStart()

	var (
		best        M
		bestScore   score
		bestData    InliersData
		haveBest    bool
		residuals   = make([]float64, n)
		idx         = make([]int, m)
		bound       = e.opts.MaxIterations // conservative until a candidate exists
		t           int
		lastNotify  float64
		earlyMedian bool
	)

	for t < bound && t < e.opts.MaxIterations {
		t++

		if err := sampler.Sample(idx); err != nil {
			// Sampler failure is an internal invariant break, not a
			// degenerate subset; abort the whole call.
			e.notifyEnd(t, bound, bestData.NumInliers)
			return Result[M]{}, err
		}

		model, err := e.prob.Fit(idx)
		if err != nil {
			// Degenerate minimal sample: skip, still counts toward the cap.
			e.notifyIteration(t, bound, bestData.NumInliers)
			continue
		}

		for i := 0; i < n; i++ {
			residuals[i] = e.prob.Residual(model, i)
		}

		s := crit.evaluate(residuals)
		if !haveBest || crit.better(s, bestScore) {
			data := crit.inliers(residuals, s)
			// A candidate is acceptable only when it explains at least a
			// minimal sample's worth of correspondences.
			if data.NumInliers >= m {
				best, bestScore, bestData, haveBest = model, s, data, true

				w := float64(data.NumInliers) / float64(n)
				// The bound only ever tightens. A truncated-loss winner can
				// carry fewer inliers than the model it replaced; its looser
				// bound must not undo iterations already justified.
				if nb := adaptiveBound(e.opts.Confidence, w, m, e.opts.MaxIterations); nb < bound {
					bound = nb
				}

				lastNotify = e.notifyProgress(t, bound, data.NumInliers, lastNotify)
			}
		}

		e.notifyIteration(t, bound, bestData.NumInliers)

		if haveBest && e.opts.Method.usesMedian() && bestScore.median < e.opts.StopThreshold {
			earlyMedian = true
			break
		}
	}

	// Every exit past notifyStart pairs it with notifyEnd, the failure
	// returns included, so callback bookkeeping always balances.
	if !haveBest {
		e.notifyEnd(t, bound, 0)
		return Result[M]{}, ErrEstimationFailed
	}

	// Converged means the confidence bound (or the median early stop) was
	// actually reached — a run that merely exhausted the hard cap while the
	// bound still sat at the cap did not meet the target confidence.
	converged := earlyMedian || (bound < e.opts.MaxIterations && t >= bound)
	if !converged && e.opts.FailOnMaxIterations {
		e.notifyEnd(t, bound, bestData.NumInliers)
		return Result[M]{}, ErrIterationBudget
	}

	res := Result[M]{
		Model:      best,
		Inliers:    bestData,
		Iterations: t,
		Converged:  converged,
	}

	if e.opts.Refine && e.refiner != nil {
		inlierIdx := make([]int, 0, bestData.NumInliers)
		for i, in := range bestData.Mask {
			if in {
				inlierIdx = append(inlierIdx, i)
			}
		}
		if refined, cov, err := e.refiner.Refine(best, inlierIdx); err == nil {
			// Refinement failure falls back silently to the consensus
			// model; the mask is never re-classified either way.
			res.Model = refined
			res.Covariance = cov
			res.Refined = true
		}
	}

	e.last = nil
	if e.opts.KeepInliers {
		e.last = &bestData
	}
	e.notifyEnd(t, bound, bestData.NumInliers)

	return res, nil
}

// criterion composes the selection rule for the configured method.
func (e *Estimator[M]) criterion(m int) criterion {
	switch e.opts.Method {
	case MSAC:
		return thresholdCriterion{threshold: e.opts.Threshold, truncated: true}
	case LMedS:
		return medianCriterion{sampleSize: m}
	case PROMedS:
		return medianCriterion{weights: e.scores, sampleSize: m}
	default: // RANSAC, PROSAC
		return thresholdCriterion{threshold: e.opts.Threshold}
	}
}

// adaptiveBound returns the RANSAC iteration bound
// k = ln(1−confidence)/ln(1−wᵐ), clamped to [1, hardCap]. A non-positive
// inlier ratio keeps the conservative cap.
func adaptiveBound(confidence, w float64, m, hardCap int) int {
	if w <= 0 {
		return hardCap
	}
	wm := math.Pow(w, float64(m))
	if wm >= 1 {
		return 1
	}
	k := math.Log(1-confidence) / math.Log(1-wm)
	if math.IsNaN(k) || k >= float64(hardCap) {
		return hardCap
	}
	if k < 1 {
		return 1
	}

	return int(math.Ceil(k))
}

// notifyStart/notifyEnd/notifyIteration/notifyProgress fire the optional
// callbacks with immutable snapshots. All are nil-safe.

func (e *Estimator[M]) notifyStart() {
	if e.cb.OnStart != nil {
		e.cb.OnStart(Progress{Method: e.opts.Method, IterationBound: e.opts.MaxIterations})
	}
}

func (e *Estimator[M]) notifyEnd(t, bound, inliers int) {
	if e.cb.OnEnd != nil {
		e.cb.OnEnd(Progress{
			Method:         e.opts.Method,
			Iteration:      t,
			IterationBound: bound,
			BestInliers:    inliers,
			Fraction:       1,
		})
	}
}

func (e *Estimator[M]) notifyIteration(t, bound, inliers int) {
	if e.cb.OnIteration != nil {
		e.cb.OnIteration(Progress{
			Method:         e.opts.Method,
			Iteration:      t,
			IterationBound: bound,
			BestInliers:    inliers,
			Fraction:       fraction(t, bound),
		})
	}
}

// notifyProgress rate-limits OnProgress by ProgressDelta and returns the
// fraction last reported.
func (e *Estimator[M]) notifyProgress(t, bound, inliers int, last float64) float64 {
	f := fraction(t, bound)
	if f < last {
		f = last // the bound only tightens; keep the fraction monotone
	}
	if e.cb.OnProgress == nil || f-last < e.opts.ProgressDelta {
		return last
	}
	e.cb.OnProgress(Progress{
		Method:         e.opts.Method,
		Iteration:      t,
		IterationBound: bound,
		BestInliers:    inliers,
		Fraction:       f,
	})

	return f
}

// fraction estimates completion as t over the current bound, clamped to 1.
func fraction(t, bound int) float64 {
	if bound <= 0 {
		return 1
	}
	f := float64(t) / float64(bound)
	if f > 1 {
		return 1
	}

	return f
}
