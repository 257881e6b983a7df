// Package sample - RNG utilities shared by the subset samplers.
//
// This file centralizes deterministic random generation for all samplers.
//
// Goals:
//   - Determinism: same seed ⇒ identical subset sequences across platforms.
//   - Encapsulation: a single RNG factory; no time-based sources hidden anywhere.
//   - Safety: no panics or logging; only sentinel errors from types.go when needed.
//   - Performance: no hidden allocations in hot paths; O(m) draws.
//
// Concurrency:
//   - math/rand.Rand is NOT goroutine-safe. Do not share a *rand.Rand across goroutines.
//   - Use DeriveSeed to seed independent streams for independent estimators.
package sample

import "math/rand"

// defaultRNGSeed is the fixed “zero” seed used when callers pass seed==0.
// The value is arbitrary but stable to keep reproducible defaults.
const defaultRNGSeed int64 = 1

// rngFromSeed returns a deterministic *rand.Rand.
// Policy: seed==0 ⇒ use defaultRNGSeed; otherwise use the provided seed verbatim.
//
// Complexity: O(1).
func rngFromSeed(seed int64) *rand.Rand {
	var s int64
	s = seed
	if s == 0 {
		s = defaultRNGSeed
	}
	return rand.New(rand.NewSource(s))
}

// DeriveSeed mixes a parent seed and a stream identifier into a new 64-bit
// seed (SplitMix64-style finalizer; see Vigna 2014 for the constants).
// Callers running several estimators off one base seed use it to hand each
// an independent, reproducible stream.
//
// Complexity: O(1).
func DeriveSeed(parent int64, stream uint64) int64 {
	var x uint64
	x = uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// drawDistinct fills dst with len(dst) distinct values in [0, n), rejecting
// within-subset duplicates. For the minimal subset sizes used here
// (m ≪ n), rejection beats a full permutation: no O(n) allocation per draw.
//
// Contract: 1 ≤ len(dst) ≤ n; rng non-nil.
//
// Complexity: O(m²) expected comparisons, O(1) extra space.
func drawDistinct(dst []int, n int, rng *rand.Rand) {
	var (
		i, j, v int
		dup     bool
	)
	for i = 0; i < len(dst); i++ {
		for {
			v = rng.Intn(n)
			dup = false
			for j = 0; j < i; j++ {
				if dst[j] == v {
					dup = true
					break
				}
			}
			if !dup {
				break
			}
		}
		dst[i] = v
	}
}
