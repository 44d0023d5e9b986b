// Package sequence holds authored templates, the per-plant runtime state and the executor that walks it
package sequence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/genegarden/gene"
)

// Template defaults
const (
	DefaultRechargeTime = 3
	DefaultRegenRate    = 10.0
	DefaultMaxEnergy    = 100.0
)

var ErrInvalidTemplate = errors.New("invalid template")

// Entry is a gene reference with the power multiplier its instance starts with
type Entry struct {
	Gene  *gene.Definition
	Power float64
}

func (e Entry) power() float64 {
	if e.Power <= 0 {
		return 1
	}
	return e.Power
}

// SlotTemplate composes one active with bounded modifiers and payloads
type SlotTemplate struct {
	Active    *gene.Definition
	Modifiers []Entry
	Payloads  []Entry
}

// Template is the read-only blueprint a runtime state is instantiated from
type Template struct {
	Name             string
	Description      string
	Passives         []Entry
	Slots            []SlotTemplate
	BaseRechargeTime int
	EnergyRegenRate  float64
	MaxEnergy        float64
}

// NewTemplate returns an empty template with default energy settings
func NewTemplate(name string) *Template {
	return &Template{
		Name:             name,
		BaseRechargeTime: DefaultRechargeTime,
		EnergyRegenRate:  DefaultRegenRate,
		MaxEnergy:        DefaultMaxEnergy,
	}
}

func definitions(entries []Entry) []*gene.Definition {
	out := make([]*gene.Definition, 0, len(entries))
	for _, e := range entries {
		if e.Gene != nil {
			out = append(out, e.Gene)
		}
	}
	return out
}

// Validate checks one slot's composition against its active's capacities and rules
// An empty slot is valid
func (s SlotTemplate) Validate() error {
	if s.Active == nil {
		return nil
	}
	active, ok := s.Active.AsActive()
	if !ok {
		return fmt.Errorf("%s is not an active gene", s.Active.Name)
	}
	mods := definitions(s.Modifiers)
	pays := definitions(s.Payloads)
	if len(mods) > active.ModifierSlots {
		return fmt.Errorf("%s takes %d modifiers, got %d", s.Active.Name, active.ModifierSlots, len(mods))
	}
	if len(pays) > active.PayloadSlots {
		return fmt.Errorf("%s takes %d payloads, got %d", s.Active.Name, active.PayloadSlots, len(pays))
	}
	for _, m := range mods {
		if _, ok := m.AsModifier(); !ok {
			return fmt.Errorf("%s in modifier position is a %s gene", m.Name, m.Role)
		}
	}
	for _, p := range pays {
		if _, ok := p.AsPayload(); !ok {
			return fmt.Errorf("%s in payload position is a %s gene", p.Name, p.Role)
		}
	}
	if !active.AcceptsConfig(mods, pays) {
		return fmt.Errorf("%s rejects its modifier/payload configuration", s.Active.Name)
	}
	return nil
}

// Validate requires at least one active slot and every non-empty slot within capacity
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	hasActive := false
	for i, slot := range t.Slots {
		if slot.Active != nil {
			hasActive = true
		}
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("%w: %s slot %d: %v", ErrInvalidTemplate, t.Name, i, err)
		}
	}
	if !hasActive {
		return fmt.Errorf("%w: %s has no active gene", ErrInvalidTemplate, t.Name)
	}
	for _, p := range t.Passives {
		if p.Gene == nil {
			continue
		}
		if _, ok := p.Gene.AsPassive(); !ok {
			return fmt.Errorf("%w: %s: %s in passive position is a %s gene", ErrInvalidTemplate, t.Name, p.Gene.Name, p.Gene.Role)
		}
	}
	return nil
}

// IsValid is the boolean form of Validate
func (t *Template) IsValid() bool {
	return t.Validate() == nil
}

// Instantiate builds a fresh runtime state from tpl
// Every instance carries its entry's power multiplier; capacity overflow is clamped and logged
func Instantiate(tpl *Template, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	st := &State{ID: gene.NewID()}
	if tpl == nil {
		logger.Error("instantiate called without template")
		return st
	}
	st.Template = tpl.Name
	st.BaseRechargeTime = tpl.BaseRechargeTime

	for _, p := range tpl.Passives {
		if p.Gene == nil {
			continue
		}
		st.Passives = append(st.Passives, newInstance(p))
	}
	for _, s := range tpl.Slots {
		slot := &Slot{}
		if s.Active != nil {
			slot.Active = gene.NewInstance(s.Active)
			slot.Active.SetValue(gene.KeyPowerMultiplier, 1)
		}
		for _, m := range s.Modifiers {
			if m.Gene != nil {
				slot.Modifiers = append(slot.Modifiers, newInstance(m))
			}
		}
		for _, p := range s.Payloads {
			if p.Gene != nil {
				slot.Payloads = append(slot.Payloads, newInstance(p))
			}
		}
		st.Slots = append(st.Slots, slot)
	}
	st.enforceCapacity(nil, logger)
	return st
}

func newInstance(e Entry) *gene.Instance {
	inst := gene.NewInstance(e.Gene)
	inst.SetValue(gene.KeyPowerMultiplier, e.power())
	return inst
}
