// Package consensus implements the generic robust sample-consensus
// estimation engine: the iterate–sample–fit–score–select loop shared by
// RANSAC, MSAC, LMedS, PROSAC and PROMedS, over any model type M.
//
// The engine is parametrized by a Problem[M] capability — Fit over a
// minimal index subset plus a per-correspondence Residual — so algorithm
// variants differ only in their sampler (uniform vs quality-progressive)
// and selection criterion (inlier count, truncated cost, or median
// residual), never in the loop itself.
//
// # Loop
//
//  1. Draw a minimal subset (sample.Sampler).
//  2. Fit a candidate model; a degenerate subset skips the iteration.
//  3. Score the candidate against the ENTIRE correspondence set.
//  4. Keep the best candidate per the active criterion; recompute the
//     adaptive iteration bound k = ln(1−confidence)/ln(1−wᵐ) from the best
//     inlier ratio w (the bound only ever tightens).
//  5. Stop at the adaptive bound, the hard MaxIterations cap, or — for the
//     median criteria — when the best median drops below StopThreshold.
//  6. Optionally re-fit over the winning inlier set via a Refiner[M].
//
// # State machine
//
// An Estimator is Idle or Estimating. Every mutating setter returns
// ErrLocked while Estimating — including when invoked from inside a
// callback, which fires synchronously on the calling goroutine. The
// transition back to Idle is deferred, so it survives panics in problem
// code. The lock guards reentrant mutation, not concurrent use: an
// Estimator must not be shared across goroutines.
//
// # Error taxonomy
//
// Callers can distinguish four outcomes:
//
//   - precondition errors (ErrNilProblem, ErrInsufficientData,
//     ErrScoresRequired, ErrScoreMismatch, and the per-field option
//     sentinels) — fix the inputs and retry;
//   - ErrLocked — a mutating call raced a running Estimate;
//   - ErrEstimationFailed / ErrIterationBudget — the algorithm found no
//     acceptable model;
//   - success with Result.Covariance == nil — refinement was degenerate,
//     the consensus model stands.
package consensus
