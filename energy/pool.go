// Package energy provides the per-plant energy budget
package energy

import (
	"math"
	"sync"
)

// Pool is a clamped energy budget with per-tick regeneration
type Pool struct {
	mu         sync.Mutex
	current    float64
	max        float64
	regen      float64
	multiplier float64
}

// NewPool creates a pool holding initial, capped at max, regenerating regen per tick
func NewPool(initial, max, regen float64) *Pool {
	p := &Pool{max: math.Max(0, max), regen: regen, multiplier: 1}
	p.current = clamp(initial, 0, p.max)
	return p
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Current returns the stored energy
func (p *Pool) Current() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Max returns the capacity
func (p *Pool) Max() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max
}

// HasEnergy reports whether at least amount is stored
func (p *Pool) HasEnergy(amount float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current >= amount
}

// Spend removes amount, never going below zero
func (p *Pool) Spend(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = math.Max(0, p.current-amount)
}

// Add stores amount, never exceeding capacity
func (p *Pool) Add(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = clamp(p.current+amount, 0, p.max)
}

// Set replaces the stored energy, clamped
func (p *Pool) Set(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = clamp(amount, 0, p.max)
}

// SetGenerationMultiplier scales regeneration, used by energy passives
func (p *Pool) SetGenerationMultiplier(m float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.multiplier = math.Max(0, m)
}

// GenerationMultiplier returns the regeneration scale
func (p *Pool) GenerationMultiplier() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.multiplier
}

// BaseRegen returns the regeneration rate before the generation multiplier
func (p *Pool) BaseRegen() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regen
}

// Regen returns the energy gained per tick
func (p *Pool) Regen() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regen * p.multiplier
}

// OnTick regenerates one tick of energy
func (p *Pool) OnTick(int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = clamp(p.current+p.regen*p.multiplier, 0, p.max)
}
