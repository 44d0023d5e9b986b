// Package rng provides the seedable random source shared by gene execution
package rng

import (
	"math/rand/v2"
	"sync"
)

// streamSalt decorrelates the second PCG word from the seed
const streamSalt = 0x9E3779B97F4A7C15

// Source is the deterministic random contract consumed by genes and rewards
type Source interface {
	// Float returns a value in [min, max)
	Float(min, max float64) float64
	// Int returns a value in [min, max)
	Int(min, max int) int
	// SetSeed restarts the stream from a new seed
	SetSeed(seed int64)
	// Seed returns the current seed
	Seed() int64
	// Reset restarts the stream from the current seed
	Reset()
}

// Rand is a PCG-backed Source
// Safe for concurrent use; determinism holds only for a single caller order
type Rand struct {
	mu   sync.Mutex
	seed int64
	pcg  *rand.PCG
	r    *rand.Rand
}

// New creates a source seeded with seed
func New(seed int64) *Rand {
	r := &Rand{}
	r.SetSeed(seed)
	return r
}

// SetSeed restarts the stream from seed
func (r *Rand) SetSeed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seed = seed
	r.pcg = rand.NewPCG(uint64(seed), uint64(seed)^streamSalt)
	r.r = rand.New(r.pcg)
}

// Seed returns the current seed
func (r *Rand) Seed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}

// Reset restarts the stream from the current seed
func (r *Rand) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pcg.Seed(uint64(r.seed), uint64(r.seed)^streamSalt)
}

// MarshalBinary encodes the stream position so a restored source continues where this one stopped
func (r *Rand) MarshalBinary() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pcg.MarshalBinary()
}

// UnmarshalBinary moves the stream to a position produced by MarshalBinary; the seed is kept
func (r *Rand) UnmarshalBinary(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pcg.UnmarshalBinary(data)
}

// Float returns a value in [min, max), min when the range is empty
func (r *Rand) Float(min, max float64) float64 {
	if max <= min {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + r.r.Float64()*(max-min)
}

// Int returns a value in [min, max), min when the range is empty
func (r *Rand) Int(min, max int) int {
	if max <= min {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + r.r.IntN(max-min)
}
