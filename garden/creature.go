package garden

import (
	"math"
	"sync"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/rng"
	"github.com/lixenwraith/genegarden/vmath"
)

// Creature defaults
const (
	DefaultCreatureHealth = 20.0
	DefaultCreatureSpeed  = 0.5
	DefaultHungerRate     = 0.2
	MaxHunger             = 100.0

	// wanderTurn is the largest heading change per tick in degrees
	wanderTurn = 30.0
)

type activeStatus struct {
	gene.Status
	remaining int
}

// Creature is a wandering target that payloads and fruit act on
type Creature struct {
	mu sync.RWMutex

	id        string
	species   string
	pos       vmath.Vec2
	heading   float64
	speed     float64
	health    float64
	maxHealth float64
	hunger    float64
	statuses  []activeStatus
	dying     bool
}

// NewCreature creates a creature at full health
func NewCreature(id, species string, pos vmath.Vec2, maxHealth float64) *Creature {
	if maxHealth <= 0 {
		maxHealth = DefaultCreatureHealth
	}
	return &Creature{
		id:        id,
		species:   species,
		pos:       pos,
		speed:     DefaultCreatureSpeed,
		health:    maxHealth,
		maxHealth: maxHealth,
	}
}

func (c *Creature) ID() string      { return c.id }
func (c *Creature) Species() string { return c.species }

func (c *Creature) Position() vmath.Vec2 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

func (c *Creature) Dying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dying
}

func (c *Creature) Health() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

func (c *Creature) MaxHealth() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxHealth
}

func (c *Creature) Hunger() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hunger
}

// Statuses returns the names of the active status effects
func (c *Creature) Statuses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.statuses))
	for _, s := range c.statuses {
		out = append(out, s.Name)
	}
	return out
}

// TakeDamage lowers health, marking the creature dying at zero
func (c *Creature) TakeDamage(amount float64) {
	if amount <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.damageLocked(amount)
}

func (c *Creature) damageLocked(amount float64) {
	if c.dying {
		return
	}
	c.health = math.Max(0, c.health-amount)
	if c.health == 0 {
		c.dying = true
	}
}

// ApplyStatus adds s, refreshing an existing status of the same name
func (c *Creature) ApplyStatus(s gene.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dying || s.DurationTicks <= 0 {
		return
	}
	for i := range c.statuses {
		if c.statuses[i].Name == s.Name {
			c.statuses[i] = activeStatus{Status: s, remaining: s.DurationTicks}
			return
		}
	}
	c.statuses = append(c.statuses, activeStatus{Status: s, remaining: s.DurationTicks})
}

// Feed lowers hunger
func (c *Creature) Feed(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hunger = math.Max(0, c.hunger-amount)
}

// Heal raises health up to the maximum
func (c *Creature) Heal(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dying {
		return
	}
	c.health = math.Min(c.maxHealth, c.health+amount)
}

// speedFactorLocked is the product of every active status speed factor
func (c *Creature) speedFactorLocked() float64 {
	f := 1.0
	for _, s := range c.statuses {
		if s.SpeedFactor > 0 {
			f *= s.SpeedFactor
		}
	}
	return f
}

// update runs one tick: status damage and expiry, hunger, then a wander step clamped to bounds
func (c *Creature) update(r rng.Source, bounds vmath.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dying {
		return
	}

	kept := c.statuses[:0]
	for _, s := range c.statuses {
		if s.DamagePerTick > 0 {
			c.damageLocked(s.DamagePerTick)
		}
		s.remaining--
		if s.remaining > 0 {
			kept = append(kept, s)
		}
	}
	c.statuses = kept
	speed := c.speed * c.speedFactorLocked()

	c.hunger = math.Min(MaxHunger, c.hunger+DefaultHungerRate)
	if c.hunger >= MaxHunger {
		c.damageLocked(1)
	}
	if c.dying || r == nil {
		return
	}

	c.heading = math.Mod(c.heading+r.Float(-wanderTurn, wanderTurn)+360, 360)
	next := vmath.V2Add(c.pos, vmath.V2Scale(vmath.V2FromAngle(c.heading), speed))
	if bounds.X > 0 && (next.X < 0 || next.X > bounds.X) {
		c.heading = math.Mod(540-c.heading, 360)
		next.X = math.Min(math.Max(next.X, 0), bounds.X)
	}
	if bounds.Y > 0 && (next.Y < 0 || next.Y > bounds.Y) {
		c.heading = math.Mod(360-c.heading, 360)
		next.Y = math.Min(math.Max(next.Y, 0), bounds.Y)
	}
	c.pos = next
}

// moveTo places the creature, used by restore and tests
func (c *Creature) moveTo(p vmath.Vec2) {
	c.mu.Lock()
	c.pos = p
	c.mu.Unlock()
}
