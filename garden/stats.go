package garden

import (
	"sync"

	"github.com/lixenwraith/genegarden/gene"
)

// Stats aggregates passive gene contributions on one plant
// Every stat starts at 1, additive passives add factor-1, multiplicative ones scale by factor
type Stats struct {
	mu     sync.RWMutex
	values map[gene.Stat]float64
	stacks map[string]int
}

func NewStats() *Stats {
	return &Stats{
		values: make(map[gene.Stat]float64),
		stacks: make(map[string]int),
	}
}

// ApplyStat folds one passive application into stat
func (s *Stats) ApplyStat(geneID string, stat gene.Stat, factor float64, additive bool, maxStacks int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxStacks >= 0 && s.stacks[geneID] >= maxStacks {
		return false
	}
	s.stacks[geneID]++

	v, ok := s.values[stat]
	if !ok {
		v = 1
	}
	if additive {
		v += factor - 1
	} else {
		v *= factor
	}
	s.values[stat] = max(v, 0)
	return true
}

// Value returns the aggregated multiplier for stat
func (s *Stats) Value(stat gene.Stat) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[stat]; ok {
		return v
	}
	return 1
}

// Stacks returns how many times geneID was applied
func (s *Stats) Stacks(geneID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stacks[geneID]
}

// Reset drops every contribution
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	clear(s.stacks)
}
