package genes

import (
	"fmt"

	"github.com/lixenwraith/genegarden/gene"
)

func buildCostReduction(d *gene.Definition, p Params) {
	factor := p.Get("cost_multiplier", 0.75)
	if d.Description == "" {
		d.Description = "Reduces the energy cost of the attached active."
	}
	d.Modifier = &gene.ModifierSpec{
		Kind:  gene.ModifierCost,
		Power: factor,
		TransformCost: func(cost float64, self *gene.Instance) float64 {
			return cost * factor * self.GetValue(gene.KeyEfficiency, 1)
		},
	}
	d.Describe = func(inst *gene.Instance) string {
		eff := 1.0
		if inst != nil {
			eff = inst.GetValue(gene.KeyEfficiency, 1)
		}
		return fmt.Sprintf("-%.0f%% energy cost", (1-factor*eff)*100)
	}
}

// buildOvercharge trades energy for power; the multiplier stacks onto the active each Pre hook
func buildOvercharge(d *gene.Definition, p Params) {
	costFactor := p.Get("cost_multiplier", 1.5)
	power := p.Get("power_multiplier", 1.4)
	if d.Description == "" {
		d.Description = "Makes the attached active stronger at a higher energy cost."
	}
	d.Modifier = &gene.ModifierSpec{
		Kind:  gene.ModifierBehavior,
		Power: power,
		TransformCost: func(cost float64, _ *gene.Instance) float64 {
			return cost * costFactor
		},
		Pre: func(ctx *gene.ActiveContext, _ *gene.Instance) {
			if ctx.Active == nil {
				return
			}
			current := ctx.Active.GetValue(gene.KeyEffectMultiplier, 1)
			ctx.Active.SetValue(gene.KeyEffectMultiplier, current*power)
		},
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("+%.0f%% cost, +%.0f%% power", (costFactor-1)*100, (power-1)*100)
	}
}

// buildTriggerProximity holds the active until a creature is near
func buildTriggerProximity(d *gene.Definition, p Params) {
	radius := p.Get("range", 3)
	if d.Description == "" {
		d.Description = "The attached active only fires when a creature is within range."
	}
	d.Modifier = &gene.ModifierSpec{
		Kind: gene.ModifierTrigger,
		Trigger: func(ctx *gene.ActiveContext, _ *gene.Instance) bool {
			if ctx.Host == nil || ctx.World == nil {
				return false
			}
			return ctx.World.HasAnyWithin(ctx.Host.Position(), radius)
		},
	}
	d.Describe = func(*gene.Instance) string {
		return fmt.Sprintf("Fires only with a creature within %.0f", radius)
	}
}
