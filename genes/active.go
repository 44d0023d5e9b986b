package genes

import (
	"fmt"
	"math"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

// Behavior kinds
const (
	KindCloud            = "cloud"
	KindProjectile       = "projectile"
	KindBasicFruit       = "basic_fruit"
	KindCostReduction    = "cost_reduction"
	KindOvercharge       = "overcharge"
	KindTriggerProximity = "trigger_proximity"
	KindPoison           = "poison"
	KindSlow             = "slow"
	KindNutritious       = "nutritious"
	KindGrowthSpeed      = "growth_speed"
	KindEnergyRoots      = "energy_roots"
	KindThickBark        = "thick_bark"
)

func prefabOr(d *gene.Definition, def string) {
	if d.Prefab == "" {
		d.Prefab = def
	}
}

// buildCloud spawns an area at the host; radius scales with the square root of the effect multiplier
func buildCloud(d *gene.Definition, p Params) {
	prefabOr(d, "cloud")
	radius := p.Get("radius", 2)
	duration := int(p.Get("duration", 3))
	if d.Description == "" {
		d.Description = "Releases a lingering cloud that applies its payloads to every creature inside."
	}

	d.Active = &gene.ActiveSpec{
		BaseCost:        p.Get("cost", 8),
		ModifierSlots:   int(p.Get("modifier_slots", 1)),
		PayloadSlots:    int(p.Get("payload_slots", 2)),
		CanExecuteEmpty: true,
		Execute: func(ctx *gene.ActiveContext) {
			mult := ctx.EffectMultiplier()
			_, err := ctx.World.SpawnArea(gene.AreaRequest{
				Prefab:     d.Prefab,
				Source:     ctx.Host,
				Origin:     ctx.Host.Position(),
				Payloads:   ctx.Payloads,
				Radius:     radius * math.Sqrt(mult),
				Duration:   duration,
				Multiplier: mult,
			})
			if err != nil {
				ctx.Fail(err)
			}
		},
		ValidConfig: func(_, _ []*gene.Definition) bool { return true },
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Cloud r%.1f for %d ticks, cost %.0f", radius, duration, d.Active.BaseCost)
	}
}

// buildProjectile fires at the nearest creature in range
func buildProjectile(d *gene.Definition, p Params) {
	prefabOr(d, "seed")
	damage := p.Get("damage", 5)
	speed := p.Get("speed", 8)
	if d.Description == "" {
		d.Description = "Spits a seed at the nearest creature in range."
	}

	d.Active = &gene.ActiveSpec{
		BaseCost:        p.Get("cost", 6),
		ModifierSlots:   int(p.Get("modifier_slots", 1)),
		PayloadSlots:    int(p.Get("payload_slots", 1)),
		CanExecuteEmpty: true,
		RequiresTarget:  true,
		TargetRange:     p.Get("range", 3),
		Delay:           int(p.Get("delay", 0)),
		Execute: func(ctx *gene.ActiveContext) {
			target, ok := ctx.World.FindNearest(ctx.Host.Position(), d.Active.TargetRange)
			if !ok {
				ctx.Fail(ErrNoTarget)
				return
			}
			_, err := ctx.World.SpawnProjectile(gene.ProjectileRequest{
				Prefab:     d.Prefab,
				Source:     ctx.Host,
				Origin:     ctx.Host.Position(),
				Target:     target,
				Damage:     damage,
				Speed:      speed,
				Multiplier: ctx.EffectMultiplier(),
				Payloads:   ctx.Payloads,
			})
			if err != nil {
				ctx.Fail(err)
			}
		},
		ValidConfig: func(_, _ []*gene.Definition) bool { return true },
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Projectile %.0f dmg, range %.0f, cost %.0f", damage, d.Active.TargetRange, d.Active.BaseCost)
	}
}

// buildBasicFruit grows fruit at the host's fruit points, or launches it when a trigger modifier is attached
func buildBasicFruit(d *gene.Definition, p Params) {
	prefabOr(d, "fruit")
	growth := int(p.Get("growth_ticks", 2))
	count := int(p.Get("count", 1))
	launch := p.Get("launch_force", 5)
	if d.Description == "" {
		d.Description = "Grows fruit carrying the attached payloads."
	}

	d.Active = &gene.ActiveSpec{
		BaseCost:      p.Get("cost", 5),
		ModifierSlots: int(p.Get("modifier_slots", 1)),
		PayloadSlots:  int(p.Get("payload_slots", 2)),
		Execute: func(ctx *gene.ActiveContext) {
			points := ctx.World.FruitPoints(ctx.Host)
			if len(points) == 0 {
				ctx.Fail(ErrNoFruitSite)
				return
			}
			instant := ctx.HasModifierKind(gene.ModifierTrigger)
			configure := fruitConfigurator(ctx)

			for i := range min(count, len(points)) {
				req := gene.FruitRequest{
					Prefab:      d.Prefab,
					Source:      ctx.Host,
					Origin:      points[i],
					GrowthTicks: growth,
					Payloads:    ctx.Payloads,
					Configure:   configure,
				}
				if instant {
					v := vmath.V2Scale(vmath.V2FromAngle(ctx.Random.Float(0, 360)), launch)
					req.Launch = &v
				}
				if _, err := ctx.World.SpawnFruit(req); err != nil {
					ctx.Fail(err)
					return
				}
			}
		},
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Grows %d fruit over %d ticks, cost %.0f", count, growth, d.Active.BaseCost)
	}
}

func fruitConfigurator(ctx *gene.ActiveContext) func(gene.FruitSink) {
	return func(sink gene.FruitSink) {
		for _, inst := range ctx.Payloads {
			def, ok := inst.As(ctx.Resolver, gene.RolePayload)
			if !ok || def.Payload.ConfigureFruit == nil {
				continue
			}
			def.Payload.ConfigureFruit(sink, inst)
		}
	}
}
