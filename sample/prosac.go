package sample

import (
	"math"
	"math/rand"
	"sort"
)

// defaultGrowthSamples is T_N in the PROSAC schedule: the number of samples
// after which the progressive sampler has degraded to plain uniform
// sampling over the full set.
const defaultGrowthSamples = 200000

// Progressive implements PROSAC sampling: correspondences are stably sorted
// by descending quality score (ties broken by original index) once per
// Init, and samples are drawn from a prefix of that ordering whose size
// grows with the iteration count. Early samples therefore concentrate on
// the highest-quality correspondences; late samples approach uniform.
//
// The growth schedule follows Chum & Matas: with T_n the expected number of
// uniform samples fully contained in the top-n prefix,
//
//	T_{n+1} = T_n · (n+1)/(n+1−m)
//
// and the prefix grows whenever the iteration counter passes the
// ceil-accumulated schedule T'_n. While growing, each sample contains the
// n-th ranked correspondence plus m−1 drawn from the n−1 above it.
type Progressive struct {
	rng    *rand.Rand
	scores []float64
	order  []int // indices sorted by descending score, stable

	n, m    int
	t       int     // samples drawn so far
	g       int     // current prefix size
	growthT float64 // T_g
	sched   float64 // T'_g
}

// NewProgressive returns a PROSAC sampler over the given quality scores.
// Higher scores mean higher confidence. The slice is copied.
func NewProgressive(scores []float64, seed int64) *Progressive {
	s := make([]float64, len(scores))
	copy(s, scores)

	return &Progressive{rng: rngFromSeed(seed), scores: s}
}

// Init validates sizes, performs the stable descending-score sort and
// resets the growth schedule.
//
// Errors: ErrBadSetSize, ErrBadSubsetSize, ErrScoreMismatch.
//
// Complexity: O(n log n).
func (p *Progressive) Init(n, m int) error {
	if n < 1 {
		return ErrBadSetSize
	}
	if m < 1 || m > n {
		return ErrBadSubsetSize
	}
	if len(p.scores) != n {
		return ErrScoreMismatch
	}

	p.order = make([]int, n)
	for i := range p.order {
		p.order[i] = i
	}
	// SliceStable keeps original-index order among equal scores.
	sort.SliceStable(p.order, func(a, b int) bool {
		return p.scores[p.order[a]] > p.scores[p.order[b]]
	})

	p.n, p.m = n, m
	p.t = 0
	p.g = m
	p.sched = 1

	// T_m = T_N · ∏_{i=0}^{m-1} (m−i)/(n−i).
	p.growthT = defaultGrowthSamples
	for i := 0; i < m; i++ {
		p.growthT *= float64(m-i) / float64(n-i)
	}

	return nil
}

// Sample fills dst with the next PROSAC subset (distinct indices into the
// original, unsorted correspondence order).
//
// Complexity: O(m²) expected.
func (p *Progressive) Sample(dst []int) error {
	if p.n == 0 {
		return ErrNotInitialized
	}
	if len(dst) != p.m {
		return ErrBadDst
	}

	p.t++
	// Advance the prefix while the iteration counter passes the schedule.
	for p.g < p.n && float64(p.t) > p.sched {
		next := p.growthT * float64(p.g+1) / float64(p.g+1-p.m)
		p.sched += math.Ceil(next - p.growthT)
		p.growthT = next
		p.g++
	}

	if p.g < p.n {
		// Growth phase: the g-th ranked point is always in the sample.
		dst[p.m-1] = p.order[p.g-1]
		drawDistinct(dst[:p.m-1], p.g-1, p.rng)
		for i := 0; i < p.m-1; i++ {
			dst[i] = p.order[dst[i]]
		}

		return nil
	}

	// Fully grown: uniform over the whole set.
	drawDistinct(dst, p.n, p.rng)
	for i := range dst {
		dst[i] = p.order[dst[i]]
	}

	return nil
}
