package library

import (
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/rng"
)

// MaxTierForRound gates reward tiers by completed round
func MaxTierForRound(round int) int {
	switch {
	case round <= 2:
		return 1
	case round <= 4:
		return 2
	default:
		return 3
	}
}

// Eligible returns genes at or below maxTier, excluding the placeholder
func (l *Library) Eligible(maxTier int) []*gene.Definition {
	var out []*gene.Definition
	for _, def := range l.All() {
		if def.Fallback || def.ID == gene.PlaceholderID {
			continue
		}
		if def.Tier <= maxTier {
			out = append(out, def)
		}
	}
	return out
}

// Draw picks between min and max genes (inclusive) for a completed round
// Picks are independent and may repeat; deterministic for a seeded source
func (l *Library) Draw(src rng.Source, round, min, max int) []*gene.Definition {
	if round <= 0 {
		return nil
	}
	pool := l.Eligible(MaxTierForRound(round))
	if len(pool) == 0 {
		l.logger.Warn("no eligible reward genes", "round", round)
		return nil
	}
	if max < min {
		max = min
	}
	count := src.Int(min, max+1)
	out := make([]*gene.Definition, 0, count)
	for range count {
		out = append(out, pool[src.Int(0, len(pool))])
	}
	l.logger.Debug("reward drawn", "round", round, "count", len(out), "max_tier", MaxTierForRound(round))
	return out
}
