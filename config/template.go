package config

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/library"
	"github.com/lixenwraith/genegarden/sequence"
)

var ErrUnknownGene = errors.New("unknown gene reference")

// EntryDoc references a gene by id or name with an optional power multiplier
type EntryDoc struct {
	Gene  string  `yaml:"gene" json:"gene" jsonschema:"description=Gene id or name,minLength=1"`
	Power float64 `yaml:"power" json:"power,omitempty" jsonschema:"description=Power multiplier the instance starts with,minimum=0,exclusiveMinimum=true"`
}

// SlotDoc is one authored slot; an empty active leaves the slot empty
type SlotDoc struct {
	Active    string     `yaml:"active" json:"active,omitempty" jsonschema:"description=Active gene id or name"`
	Modifiers []EntryDoc `yaml:"modifiers" json:"modifiers,omitempty"`
	Payloads  []EntryDoc `yaml:"payloads" json:"payloads,omitempty"`
}

// TemplateDoc is an authored template with energy settings falling back to the template defaults
type TemplateDoc struct {
	Name         string     `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Description  string     `yaml:"description" json:"description,omitempty"`
	Passives     []EntryDoc `yaml:"passives" json:"passives,omitempty"`
	Slots        []SlotDoc  `yaml:"slots" json:"slots" jsonschema:"minItems=1"`
	RechargeTime *int       `yaml:"recharge_time" json:"recharge_time,omitempty" jsonschema:"minimum=0"`
	RegenRate    *float64   `yaml:"regen_rate" json:"regen_rate,omitempty" jsonschema:"minimum=0"`
	MaxEnergy    *float64   `yaml:"max_energy" json:"max_energy,omitempty" jsonschema:"minimum=0"`
}

func lookup(lib *library.Library, ref string) (*gene.Definition, error) {
	if def, ok := lib.ByID(ref); ok {
		return def, nil
	}
	if def, ok := lib.ByName(ref); ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGene, ref)
}

func entries(lib *library.Library, docs []EntryDoc) ([]sequence.Entry, error) {
	out := make([]sequence.Entry, 0, len(docs))
	for _, d := range docs {
		def, err := lookup(lib, d.Gene)
		if err != nil {
			return nil, err
		}
		out = append(out, sequence.Entry{Gene: def, Power: d.Power})
	}
	return out, nil
}

// Build resolves every reference against lib and validates the template
// Unlike stored records, an unknown reference is an error rather than a placeholder
func (t TemplateDoc) Build(lib *library.Library) (*sequence.Template, error) {
	tpl := sequence.NewTemplate(t.Name)
	tpl.Description = t.Description
	if t.RechargeTime != nil {
		tpl.BaseRechargeTime = *t.RechargeTime
	}
	if t.RegenRate != nil {
		tpl.EnergyRegenRate = *t.RegenRate
	}
	if t.MaxEnergy != nil {
		tpl.MaxEnergy = *t.MaxEnergy
	}

	var err error
	if tpl.Passives, err = entries(lib, t.Passives); err != nil {
		return nil, fmt.Errorf("template %s passives: %w", t.Name, err)
	}
	for i, s := range t.Slots {
		var slot sequence.SlotTemplate
		if s.Active != "" {
			if slot.Active, err = lookup(lib, s.Active); err != nil {
				return nil, fmt.Errorf("template %s slot %d: %w", t.Name, i, err)
			}
		}
		if slot.Modifiers, err = entries(lib, s.Modifiers); err != nil {
			return nil, fmt.Errorf("template %s slot %d modifiers: %w", t.Name, i, err)
		}
		if slot.Payloads, err = entries(lib, s.Payloads); err != nil {
			return nil, fmt.Errorf("template %s slot %d payloads: %w", t.Name, i, err)
		}
		tpl.Slots = append(tpl.Slots, slot)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

// BuildTemplates builds every authored template in order
func (d *Document) BuildTemplates(lib *library.Library) ([]*sequence.Template, error) {
	out := make([]*sequence.Template, 0, len(d.Templates))
	for _, t := range d.Templates {
		tpl, err := t.Build(lib)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

// Template finds an authored template by name
func (d *Document) Template(name string) (TemplateDoc, bool) {
	for _, t := range d.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return TemplateDoc{}, false
}
