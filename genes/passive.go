package genes

import (
	"fmt"

	"github.com/lixenwraith/genegarden/gene"
)

func passiveSpec(stat gene.Stat, base float64, additive bool, p Params) *gene.PassiveSpec {
	return &gene.PassiveSpec{
		Stat:             stat,
		BaseValue:        p.Get("value", base),
		StacksAdditively: additive,
		MaxStacks:        int(p.Get("max_stacks", -1)),
	}
}

func describePercent(d *gene.Definition, label string) func(*gene.Instance) string {
	return func(inst *gene.Instance) string {
		factor := d.Passive.BaseValue
		if inst != nil {
			factor = d.Passive.Factor(inst)
		}
		return fmt.Sprintf("%+.0f%% %s", (factor-1)*100, label)
	}
}

// buildGrowthSpeed multiplies growth speed; repeated copies compound
func buildGrowthSpeed(d *gene.Definition, p Params) {
	if d.Description == "" {
		d.Description = "Shortens the time a plant needs to mature."
	}
	d.Passive = passiveSpec(gene.StatGrowthSpeed, 1.5, false, p)
	d.Describe = describePercent(d, "Growth Speed")
}

func buildEnergyRoots(d *gene.Definition, p Params) {
	if d.Description == "" {
		d.Description = "Increases energy generated each tick."
	}
	d.Passive = passiveSpec(gene.StatEnergyGeneration, 1.25, true, p)
	d.Describe = describePercent(d, "Energy Generation")
}

func buildThickBark(d *gene.Definition, p Params) {
	if d.Description == "" {
		d.Description = "Reduces damage taken."
	}
	d.Passive = passiveSpec(gene.StatDefense, 1.3, true, p)
	d.Describe = describePercent(d, "Defense")
}
