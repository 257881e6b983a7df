package sample

import "math/rand"

// Uniform draws every minimal subset with equal probability.
// The zero value is not usable; construct via NewUniform.
type Uniform struct {
	rng *rand.Rand
	n   int
	m   int
}

// NewUniform returns a uniform sampler seeded per the package seed policy
// (seed==0 selects the fixed default stream).
func NewUniform(seed int64) *Uniform {
	return &Uniform{rng: rngFromSeed(seed)}
}

// Init fixes the population and subset sizes.
//
// Errors: ErrBadSetSize, ErrBadSubsetSize.
func (u *Uniform) Init(n, m int) error {
	if n < 1 {
		return ErrBadSetSize
	}
	if m < 1 || m > n {
		return ErrBadSubsetSize
	}
	u.n, u.m = n, m

	return nil
}

// Sample fills dst with m distinct indices in [0, n).
//
// Complexity: O(m²) expected.
func (u *Uniform) Sample(dst []int) error {
	if u.n == 0 {
		return ErrNotInitialized
	}
	if len(dst) != u.m {
		return ErrBadDst
	}
	drawDistinct(dst, u.n, u.rng)

	return nil
}
