// Package dlt provides the minimal closed-form solvers invoked by the
// consensus engines, plus Problem adapters binding each model type to
// consensus.Estimator.
//
// Solvers:
//
//   - FitCamera     — pinhole camera from ≥6 3D↔2D correspondences via the
//     direct linear transform (2N×12 null vector).
//   - FitHomography — 2D homography from ≥4 point pairs (2N×9 null vector).
//   - FitRigid      — rigid 3D motion from ≥3 point pairs (Kabsch/Umeyama).
//   - FitConic      — conic from ≥5 2D points (N×6 null vector).
//
// All null-vector solvers optionally Hartley-normalize coordinates first
// (translate to the centroid, scale to unit mean distance) and de-normalize
// the recovered model; unnormalized DLT is ill-conditioned for points far
// from the origin, so normalization defaults to on.
//
// LMSE mode: with more than the minimal number of correspondences and
// AllowLMSE set, the solver stacks every row and takes the least-squares
// null vector (the right singular vector of the smallest singular value).
// Without the flag, surplus points are rejected — the consensus engines
// always pass exact minimal subsets.
//
// Errors (sentinel):
//
//	– ErrSizeMismatch       input/output sequences differ in length.
//	– ErrInsufficientPoints fewer points than the solver's minimum.
//	– ErrTooManyPoints      surplus points without AllowLMSE.
//	– ErrDegenerate         rank-deficient system (coplanar, collinear or
//	                        duplicated configurations); the consensus engine
//	                        treats this as a skipped iteration.
package dlt

import "errors"

// Sentinel errors returned by the dlt package.
var (
	// ErrSizeMismatch indicates parallel point sequences of unequal length.
	ErrSizeMismatch = errors.New("dlt: point sequences differ in length")

	// ErrInsufficientPoints indicates fewer correspondences than the
	// solver's minimal sample size.
	ErrInsufficientPoints = errors.New("dlt: not enough points for a minimal sample")

	// ErrTooManyPoints indicates surplus correspondences without the
	// AllowLMSE flag.
	ErrTooManyPoints = errors.New("dlt: more than a minimal sample requires AllowLMSE")

	// ErrDegenerate indicates a rank-deficient linear system: the point
	// configuration does not determine the model.
	ErrDegenerate = errors.New("dlt: degenerate point configuration")

	// ErrSVDFailed indicates the SVD factorization itself did not converge.
	ErrSVDFailed = errors.New("dlt: svd factorization failed")
)

// SolveOptions configures the closed-form solvers.
type SolveOptions struct {
	// Normalize enables Hartley coordinate normalization (default on).
	Normalize bool

	// AllowLMSE admits more than a minimal sample, solved least-squares.
	AllowLMSE bool

	// RankTol is the relative singular-value tolerance for the degeneracy
	// check (σ_i below RankTol·σ_0 counts as zero).
	RankTol float64
}

// DefaultSolveOptions returns the canonical solver configuration.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{Normalize: true, RankTol: 1e-8}
}

// MinCameraPoints is the pinhole DLT minimal sample size (11 dof, 2
// equations per point). The camera has no weaker minimum.
const MinCameraPoints = 6

// MinHomographyPoints is the 2D homography minimal sample size.
const MinHomographyPoints = 4

// MinRigidPoints is the rigid 3D motion minimal sample size.
const MinRigidPoints = 3

// MinConicPoints is the conic minimal sample size.
const MinConicPoints = 5
