package genes

import (
	"fmt"

	"github.com/lixenwraith/genegarden/gene"
)

// Fruit property keys set by substance payloads
const (
	PropPoisonous = "is_poisonous"
	PropSlowing   = "is_slowing"
)

func colorOr(d *gene.Definition, c string) {
	if d.Color == "" {
		d.Color = c
	}
}

func buildPoison(d *gene.Definition, p Params) {
	colorOr(d, "#66cc33")
	damage := p.Get("damage_per_tick", 2)
	duration := int(p.Get("duration", 3))
	if d.Description == "" {
		d.Description = "Poisons the target, dealing damage over time."
	}
	d.Payload = &gene.PayloadSpec{
		Kind:        gene.PayloadSubstance,
		BasePotency: p.Get("potency", 1),
		Apply: func(ctx *gene.PayloadContext) {
			r, ok := ctx.Target.(gene.StatusReceiver)
			if !ok {
				return
			}
			r.ApplyStatus(gene.Status{
				Name:          "poison",
				DamagePerTick: damage * ctx.Payload.Payload.FinalPotency(ctx.Instance) * ctx.EffectMultiplier,
				SpeedFactor:   1,
				DurationTicks: duration,
			})
		},
		ConfigureFruit: func(f gene.FruitSink, _ *gene.Instance) {
			f.Tint(d.Color)
			f.SetProperty(PropPoisonous, 1)
		},
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Poison %.0f/tick for %d ticks", damage, duration)
	}
}

func buildSlow(d *gene.Definition, p Params) {
	colorOr(d, "#4d99ff")
	factor := p.Get("speed_factor", 0.5)
	duration := int(p.Get("duration", 2))
	if d.Description == "" {
		d.Description = "Slows the target's movement."
	}
	d.Payload = &gene.PayloadSpec{
		Kind:        gene.PayloadSubstance,
		BasePotency: p.Get("potency", 1),
		Apply: func(ctx *gene.PayloadContext) {
			r, ok := ctx.Target.(gene.StatusReceiver)
			if !ok {
				return
			}
			r.ApplyStatus(gene.Status{Name: "slow", SpeedFactor: factor, DurationTicks: duration})
		},
		ConfigureFruit: func(f gene.FruitSink, _ *gene.Instance) {
			f.Tint(d.Color)
			f.SetProperty(PropSlowing, 1)
		},
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Slow x%.1f for %d ticks", factor, duration)
	}
}

// buildNutritious feeds and heals; version 2 renamed the stored "potency" value
func buildNutritious(d *gene.Definition, p Params) {
	colorOr(d, "#ffcc33")
	nutrition := p.Get("nutrition", 10)
	heal := p.Get("heal", 5)
	if d.Description == "" {
		d.Description = "Adds nutrition and healing."
	}
	d.Payload = &gene.PayloadSpec{
		Kind:        gene.PayloadNutrition,
		BasePotency: p.Get("potency", 1),
		Apply: func(ctx *gene.PayloadContext) {
			f, ok := ctx.Target.(gene.Feeder)
			if !ok {
				return
			}
			f.Feed(nutrition * ctx.Payload.Payload.FinalPotency(ctx.Instance))
			f.Heal(heal)
		},
		ConfigureFruit: func(f gene.FruitSink, inst *gene.Instance) {
			f.AddNutrition(nutrition*d.Payload.FinalPotency(inst), heal)
			f.Tint(d.Color)
		},
	}
	d.Migrate = func(old int, data *gene.Data) {
		if old < 2 {
			if v, ok := data.Values["potency"]; ok {
				data.Values[gene.KeyPotencyMultiplier] = v
				delete(data.Values, "potency")
			}
		}
	}
	d.Describe = func(inst *gene.Instance) string {
		return fmt.Sprintf("+%.0f nutrition, +%.0f heal", nutrition*d.Payload.FinalPotency(inst), heal)
	}
}
