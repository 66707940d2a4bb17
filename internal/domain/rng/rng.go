// Package rng is the single randomness provider threaded through the engine.
// Production code uses seeded math/rand sources; tests script exact draws
// with Sequence.
package rng

import (
	"math/rand"
)

// TrialStride spaces the seeds of consecutive trials.
const TrialStride = 7919

// Source yields uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

// New returns a deterministic source. Seed 0 is mapped to 1 so a zero-value
// config still produces a usable stream.
func New(seed int64) Source {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic simulation, not crypto
}

// TrialSeed derives the seed of trial i from a run seed.
func TrialSeed(seed int64, i int) int64 {
	return seed + int64(i)*TrialStride
}

// Uniform draws from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// Sequence replays a fixed list of draws, wrapping around at the end.
// It is not safe for concurrent use.
type Sequence struct {
	draws []float64
	next  int
	used  int
}

// NewSequence builds a scripted source. It panics on an empty list.
func NewSequence(draws ...float64) *Sequence {
	if len(draws) == 0 {
		panic("rng: empty sequence")
	}
	return &Sequence{draws: append([]float64(nil), draws...)}
}

// Float64 returns the next scripted draw.
func (s *Sequence) Float64() float64 {
	v := s.draws[s.next]
	s.next = (s.next + 1) % len(s.draws)
	s.used++
	return v
}

// Used reports how many draws have been consumed.
func (s *Sequence) Used() int { return s.used }
