// Package gene defines gene definitions, per-occurrence instances and the execution contexts genes run in
//
// A Definition is immutable after construction and shared by reference across every instance
// that names it. Role-specific data lives in exactly one of the role spec pointers, selected by Role.
package gene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Role is the gene taxonomy discriminant
type Role int

const (
	RolePassive Role = iota
	RoleActive
	RoleModifier
	RolePayload
)

var roleNames = [...]string{"passive", "active", "modifier", "payload"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole maps a role name to its Role
func ParseRole(s string) (Role, bool) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), true
		}
	}
	return 0, false
}

// ModifierKind classifies what a modifier affects
type ModifierKind int

const (
	ModifierCost      ModifierKind = iota // Energy consumption
	ModifierTrigger                       // When the active executes
	ModifierBehavior                      // Multi-cast, power, spread
	ModifierCondition                     // Additional requirements
)

// PayloadKind classifies what a payload carries
type PayloadKind int

const (
	PayloadSubstance PayloadKind = iota // Damage and status effects
	PayloadNutrition                    // Healing and hunger
	PayloadSpecial
)

// Stat is a host attribute adjusted by passive genes
type Stat int

const (
	StatGrowthSpeed Stat = iota
	StatEnergyGeneration
	StatDefense
)

var statNames = [...]string{"growth_speed", "energy_generation", "defense"}

func (s Stat) String() string {
	if s < 0 || int(s) >= len(statNames) {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat maps a stat name to its Stat
func ParseStat(s string) (Stat, bool) {
	for i, name := range statNames {
		if name == s {
			return Stat(i), true
		}
	}
	return 0, false
}

// Instance value keys shared across genes
const (
	KeyPowerMultiplier   = "power_multiplier"
	KeyEffectMultiplier  = "effect_multiplier"
	KeyPotencyMultiplier = "potency_multiplier"
	KeyEfficiency        = "efficiency"
	KeyStackCount        = "stack_count"
)

var (
	ErrMissingIdentity = errors.New("gene has no identity")
	ErrRoleMismatch    = errors.New("gene role does not match its data")
)

// ActiveSpec is the Active role payload
type ActiveSpec struct {
	BaseCost        float64
	ModifierSlots   int
	PayloadSlots    int
	CanExecuteEmpty bool
	RequiresTarget  bool
	TargetRange     float64
	// Delay is the number of ticks between the energy spend and Execute
	Delay int

	Execute func(ctx *ActiveContext)
	// ValidConfig overrides the default composition rule (payloads required unless CanExecuteEmpty)
	ValidConfig func(modifiers, payloads []*Definition) bool
}

// AcceptsConfig reports whether the modifier/payload composition is valid for this active
func (a *ActiveSpec) AcceptsConfig(modifiers, payloads []*Definition) bool {
	if a.ValidConfig != nil {
		return a.ValidConfig(modifiers, payloads)
	}
	return a.CanExecuteEmpty || len(payloads) > 0
}

// ModifierSpec is the Modifier role payload
type ModifierSpec struct {
	Kind  ModifierKind
	Power float64

	// TransformCost receives the running cost and the modifier's own instance
	TransformCost func(cost float64, self *Instance) float64
	Pre           func(ctx *ActiveContext, self *Instance)
	Post          func(ctx *ActiveContext, self *Instance)
	// Trigger gates execution before energy is spent; nil means always satisfied
	Trigger func(ctx *ActiveContext, self *Instance) bool
}

// PayloadSpec is the Payload role payload
type PayloadSpec struct {
	Kind        PayloadKind
	BasePotency float64

	Apply          func(ctx *PayloadContext)
	ConfigureFruit func(fruit FruitSink, self *Instance)
}

// FinalPotency scales the base potency by the instance potency multiplier
func (p *PayloadSpec) FinalPotency(inst *Instance) float64 {
	if inst == nil {
		return p.BasePotency
	}
	return p.BasePotency * inst.GetValue(KeyPotencyMultiplier, 1)
}

// PassiveSpec is the Passive role payload
type PassiveSpec struct {
	Stat             Stat
	BaseValue        float64
	StacksAdditively bool
	// MaxStacks caps applications of the same gene on one host, -1 for unlimited
	MaxStacks int

	// Apply defaults to a stat delta of BaseValue scaled by power_multiplier
	Apply        func(ctx *PassiveContext)
	Requirements func(ctx *PassiveContext) bool
}

// Factor is the stat multiplier this passive contributes for inst
func (p *PassiveSpec) Factor(inst *Instance) float64 {
	return p.BaseValue * inst.GetValue(KeyPowerMultiplier, 1)
}

// Definition describes one gene capability
type Definition struct {
	ID          string
	Name        string
	Description string
	Tier        int
	Version     int
	Color       string
	// Prefab names the world effect template used by actives that spawn one
	Prefab string

	Role     Role
	Active   *ActiveSpec
	Modifier *ModifierSpec
	Payload  *PayloadSpec
	Passive  *PassiveSpec

	// Migrate upgrades instance data stored against an older Version
	Migrate func(oldVersion int, data *Data)
	// Describe renders a one-line summary for the instance
	Describe func(inst *Instance) string

	// Fallback marks the library placeholder
	Fallback bool
}

// NewID returns a fresh stable identity
func NewID() string {
	return uuid.NewString()
}

// Validate checks the discriminant matches exactly one populated role spec
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: %q", ErrMissingIdentity, d.Name)
	}
	set := 0
	for _, present := range []bool{d.Active != nil, d.Modifier != nil, d.Payload != nil, d.Passive != nil} {
		if present {
			set++
		}
	}
	var ok bool
	switch d.Role {
	case RoleActive:
		ok = d.Active != nil
	case RoleModifier:
		ok = d.Modifier != nil
	case RolePayload:
		ok = d.Payload != nil
	case RolePassive:
		ok = d.Passive != nil
	}
	if !ok || set != 1 {
		return fmt.Errorf("%w: %s declared %s", ErrRoleMismatch, d.Name, d.Role)
	}
	return nil
}

// AsActive returns the Active payload when the role is Active
func (d *Definition) AsActive() (*ActiveSpec, bool) {
	if d == nil || d.Role != RoleActive || d.Active == nil {
		return nil, false
	}
	return d.Active, true
}

// AsModifier returns the Modifier payload when the role is Modifier
func (d *Definition) AsModifier() (*ModifierSpec, bool) {
	if d == nil || d.Role != RoleModifier || d.Modifier == nil {
		return nil, false
	}
	return d.Modifier, true
}

// AsPayload returns the Payload payload when the role is Payload
func (d *Definition) AsPayload() (*PayloadSpec, bool) {
	if d == nil || d.Role != RolePayload || d.Payload == nil {
		return nil, false
	}
	return d.Payload, true
}

// AsPassive returns the Passive payload when the role is Passive
func (d *Definition) AsPassive() (*PassiveSpec, bool) {
	if d == nil || d.Role != RolePassive || d.Passive == nil {
		return nil, false
	}
	return d.Passive, true
}

// Summary returns the Describe text or the description
func (d *Definition) Summary(inst *Instance) string {
	if d.Describe != nil {
		return d.Describe(inst)
	}
	return d.Description
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s(%s)", d.Name, d.Role)
}

// EnergyCost folds base cost through each modifier transform in list order and clamps at zero
// Instances that do not resolve to a modifier are skipped
func EnergyCost(active *ActiveSpec, modifiers []*Instance, r Resolver) float64 {
	if active == nil {
		return 0
	}
	cost := active.BaseCost
	for _, inst := range modifiers {
		if inst == nil {
			continue
		}
		def, ok := inst.As(r, RoleModifier)
		if !ok || def.Modifier.TransformCost == nil {
			continue
		}
		cost = def.Modifier.TransformCost(cost, inst)
	}
	if cost < 0 {
		return 0
	}
	return cost
}
