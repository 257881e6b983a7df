// Package sample draws minimal correspondence subsets for the consensus
// engines: ordered index subsets of fixed size m, without replacement,
// from [0, N).
//
// Two strategies are provided:
//
//   - Uniform     — every m-subset equally likely; used by RANSAC / MSAC / LMedS.
//   - Progressive — PROSAC ordering: indices are stably sorted by descending
//     quality score once per Init, and early samples are drawn from a growing
//     high-quality prefix, converging toward uniform sampling over the full
//     set as iterations proceed. Used by PROSAC / PROMedS.
//
// Determinism: all randomness flows from an injected seed (seed==0 selects a
// fixed default stream), so identical configurations replay identical
// subset sequences.
//
// Errors (sentinel):
//
//	– ErrBadSubsetSize   if m < 1 or m > n.
//	– ErrBadSetSize      if n < 1.
//	– ErrScoreMismatch   if the score vector length differs from n.
//	– ErrNotInitialized  if Sample is called before a successful Init.
//	– ErrBadDst          if the destination slice length differs from m.
package sample

import "errors"

// Sentinel errors returned by the sample package.
var (
	// ErrBadSubsetSize indicates a requested subset size outside [1, n].
	ErrBadSubsetSize = errors.New("sample: subset size must be in [1, n]")

	// ErrBadSetSize indicates a non-positive population size.
	ErrBadSetSize = errors.New("sample: population size must be positive")

	// ErrScoreMismatch indicates len(scores) != n at Init time.
	ErrScoreMismatch = errors.New("sample: quality score length mismatch")

	// ErrNotInitialized indicates Sample was called before Init.
	ErrNotInitialized = errors.New("sample: sampler not initialized")

	// ErrBadDst indicates a destination slice whose length is not the
	// configured subset size.
	ErrBadDst = errors.New("sample: destination length must equal subset size")
)

// Sampler produces ordered index subsets of a fixed minimal size.
//
// Init fixes the population size n and subset size m (and performs any
// per-estimate precomputation, e.g. the PROSAC score sort). Sample fills
// dst (len(dst) == m) with distinct indices in [0, n) and advances the
// sampler's internal iteration counter.
//
// Samplers are not safe for concurrent use; each estimate call owns one.
type Sampler interface {
	Init(n, m int) error
	Sample(dst []int) error
}
