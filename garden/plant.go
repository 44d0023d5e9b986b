package garden

import (
	"github.com/lixenwraith/genegarden/energy"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/sequence"
	"github.com/lixenwraith/genegarden/vmath"
)

// fruitOffsets are the fruit sites around a plant, relative to its position
var fruitOffsets = []vmath.Vec2{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// Plant hosts one runtime sequence with its energy pool and passive stats
type Plant struct {
	id  string
	pos vmath.Vec2

	Energy   *energy.Pool
	Stats    *Stats
	Executor *sequence.Executor
}

func (p *Plant) ID() string           { return p.id }
func (p *Plant) Position() vmath.Vec2 { return p.pos }

// State returns the runtime state the executor walks
func (p *Plant) State() *sequence.State { return p.Executor.State() }

// FruitPoints returns the world positions fruit can grow at
func (p *Plant) FruitPoints() []vmath.Vec2 {
	out := make([]vmath.Vec2, len(fruitOffsets))
	for i, off := range fruitOffsets {
		out[i] = vmath.V2Add(p.pos, off)
	}
	return out
}

// GrowthSpeed is the aggregated growth multiplier from passives
func (p *Plant) GrowthSpeed() float64 {
	return p.Stats.Value(gene.StatGrowthSpeed)
}

// OnTick regenerates energy, then lets the executor evaluate
func (p *Plant) OnTick(tick int) {
	p.Energy.OnTick(tick)
	p.Executor.OnTick(tick)
}

// refreshPassives reapplies passives from scratch and pushes the energy stat into the pool
func (p *Plant) refreshPassives() int {
	p.Stats.Reset()
	n := p.Executor.ApplyPassives(p.Stats)
	p.Energy.SetGenerationMultiplier(p.Stats.Value(gene.StatEnergyGeneration))
	return n
}
