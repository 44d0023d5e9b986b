package gene

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/genegarden/rng"
	"github.com/lixenwraith/genegarden/vmath"
)

// Host is the entity executing a sequence
type Host interface {
	ID() string
	Position() vmath.Vec2
}

// Target is a creature that payloads apply to
type Target interface {
	ID() string
	Position() vmath.Vec2
	Dying() bool
}

// Damageable targets accept direct damage
type Damageable interface {
	TakeDamage(amount float64)
}

// StatusReceiver targets accept timed status effects
type StatusReceiver interface {
	ApplyStatus(s Status)
}

// Feeder targets accept nutrition and healing
type Feeder interface {
	Feed(amount float64)
	Heal(amount float64)
}

// Status is a timed effect carried by substance payloads
type Status struct {
	Name          string
	DamagePerTick float64
	SpeedFactor   float64
	DurationTicks int
}

// FruitSink receives payload configuration for a spawned fruit
type FruitSink interface {
	SetProperty(key string, value float64)
	AddNutrition(nutrition, heal float64)
	Tint(color string)
}

// AreaRequest asks the world to spawn a ticking area effect
type AreaRequest struct {
	Prefab     string
	Source     Host
	Origin     vmath.Vec2
	Payloads   []*Instance
	Radius     float64
	Duration   int
	// Multiplier scales payload potency; zero disables it and a negative value means 1
	Multiplier float64
}

// ProjectileRequest asks the world to spawn a homing projectile
type ProjectileRequest struct {
	Prefab     string
	Source     Host
	Origin     vmath.Vec2
	Target     Target
	Damage     float64
	Speed      float64
	// Multiplier scales damage and payloads; zero disables them and a negative value means 1
	Multiplier float64
	Payloads   []*Instance
}

// FruitRequest asks the world to spawn a fruit
// A non-nil Launch velocity skips growth
type FruitRequest struct {
	Prefab      string
	Source      Host
	Origin      vmath.Vec2
	GrowthTicks int
	Launch      *vmath.Vec2
	Payloads    []*Instance
	Configure   func(FruitSink)
}

// World is the spawn and query surface available to active genes
type World interface {
	FindNearest(origin vmath.Vec2, radius float64) (Target, bool)
	HasAnyWithin(origin vmath.Vec2, radius float64) bool
	SpawnArea(req AreaRequest) (string, error)
	SpawnProjectile(req ProjectileRequest) (string, error)
	SpawnFruit(req FruitRequest) (string, error)
	FruitPoints(host Host) []vmath.Vec2
}

// Stats aggregates passive stat deltas on a host
// Returns false when the gene reached its stack cap
type Stats interface {
	ApplyStat(geneID string, stat Stat, factor float64, additive bool, maxStacks int) bool
}

// ActiveContext carries everything an active gene needs for one execution
type ActiveContext struct {
	Host      Host
	Active    *Instance
	Modifiers []*Instance
	Payloads  []*Instance
	Position  int
	Tick      int
	Random    rng.Source
	World     World
	Resolver  Resolver
	Logger    *slog.Logger

	// Err is set by Execute through Fail and reported as an unsuccessful execution
	Err error
}

// Fail records why the execution did not produce its effect
func (c *ActiveContext) Fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
	if c.Logger != nil {
		c.Logger.Warn("gene execution failed", "gene", c.Active.GeneName(), "error", err)
	}
}

// Definition returns the resolved active definition
func (c *ActiveContext) Definition() *Definition {
	return c.Active.Definition(c.Resolver)
}

// EffectMultiplier returns the multiplier stacked onto the active by modifiers
func (c *ActiveContext) EffectMultiplier() float64 {
	if c.Active == nil {
		return 1
	}
	return c.Active.GetValue(KeyEffectMultiplier, 1)
}

// HasModifierKind reports whether any attached modifier is of kind
func (c *ActiveContext) HasModifierKind(kind ModifierKind) bool {
	for _, m := range c.Modifiers {
		if def, ok := m.As(c.Resolver, RoleModifier); ok && def.Modifier.Kind == kind {
			return true
		}
	}
	return false
}

// PayloadDefinitions resolves the attached payloads that are payload-role genes
func (c *ActiveContext) PayloadDefinitions() []*Definition {
	out := make([]*Definition, 0, len(c.Payloads))
	for _, p := range c.Payloads {
		if def, ok := p.As(c.Resolver, RolePayload); ok {
			out = append(out, def)
		}
	}
	return out
}

// PayloadContext carries one payload application to one target
type PayloadContext struct {
	Target           Target
	Source           Host
	Parent           *Definition
	Instance         *Instance
	Payload          *Definition
	EffectMultiplier float64
	Logger           *slog.Logger
}

// PassiveContext carries one passive application to a host
type PassiveContext struct {
	Host     Host
	Stats    Stats
	Instance *Instance
	Passive  *Definition
}

var (
	ErrNotPayload     = errors.New("instance does not resolve to a payload gene")
	ErrPayloadFaulted = errors.New("payload application panicked")
)

// ApplyPayload resolves inst and applies it to target with a recovered fault boundary
// A fault is returned as an error wrapping ErrPayloadFaulted, naming the gene
func ApplyPayload(r Resolver, inst *Instance, target Target, source Host, multiplier float64, logger *slog.Logger) (err error) {
	if inst == nil {
		return ErrNotPayload
	}
	def, ok := inst.As(r, RolePayload)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPayload, inst.GeneName())
	}
	if def.Payload.Apply == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPayloadFaulted, def.Name, rec)
		}
	}()

	def.Payload.Apply(&PayloadContext{
		Target:           target,
		Source:           source,
		Instance:         inst,
		Payload:          def,
		EffectMultiplier: multiplier,
		Logger:           logger,
	})
	return nil
}
