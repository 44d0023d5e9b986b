// Package genes implements the concrete gene behaviors and builds definitions from authored specs
package genes

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/library"
)

var (
	ErrUnknownKind = errors.New("unknown gene kind")
	ErrNoTarget    = errors.New("no target in range")
	ErrNoFruitSite = errors.New("host has no fruit spawn points")
)

// namespace scopes stable gene identities
var namespace = uuid.MustParse("6f1c9a52-3d1e-4c57-9b8e-2a7d4e0f93c1")

// StableID derives a fixed identity from a key so catalogs reproduce the same ids across runs
func StableID(key string) string {
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// Params holds the tunable numbers of an authored gene
type Params map[string]float64

// Get returns the parameter or def when absent
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Spec is an authored gene: identity, presentation and parameters for a behavior kind
type Spec struct {
	ID          string
	Name        string
	Kind        string
	Tier        int
	Version     int
	Description string
	Color       string
	Prefab      string
	Params      Params
}

type builder struct {
	role    gene.Role
	name    string
	version int
	build   func(d *gene.Definition, p Params)
}

var builders = map[string]builder{
	KindCloud:            {gene.RoleActive, "Cloud", 1, buildCloud},
	KindProjectile:       {gene.RoleActive, "Projectile", 1, buildProjectile},
	KindBasicFruit:       {gene.RoleActive, "Basic Fruit", 1, buildBasicFruit},
	KindCostReduction:    {gene.RoleModifier, "Cost Reduction", 1, buildCostReduction},
	KindOvercharge:       {gene.RoleModifier, "Overcharge", 1, buildOvercharge},
	KindTriggerProximity: {gene.RoleModifier, "Trigger Proximity", 1, buildTriggerProximity},
	KindPoison:           {gene.RolePayload, "Poison", 1, buildPoison},
	KindSlow:             {gene.RolePayload, "Slow", 1, buildSlow},
	KindNutritious:       {gene.RolePayload, "Nutritious", 2, buildNutritious},
	KindGrowthSpeed:      {gene.RolePassive, "Growth Speed", 1, buildGrowthSpeed},
	KindEnergyRoots:      {gene.RolePassive, "Energy Roots", 1, buildEnergyRoots},
	KindThickBark:        {gene.RolePassive, "Thick Bark", 1, buildThickBark},
}

// Kinds returns every buildable kind, sorted
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// RoleOf returns the role a kind builds
func RoleOf(kind string) (gene.Role, bool) {
	b, ok := builders[kind]
	return b.role, ok
}

// Build turns an authored spec into a validated definition
// Missing identity, name and version fall back to the kind defaults
func Build(s Spec) (*gene.Definition, error) {
	b, ok := builders[s.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	d := &gene.Definition{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Tier:        s.Tier,
		Version:     s.Version,
		Color:       s.Color,
		Prefab:      s.Prefab,
		Role:        b.role,
	}
	if d.ID == "" {
		d.ID = StableID(s.Kind)
	}
	if d.Name == "" {
		d.Name = b.name
	}
	if d.Version == 0 {
		d.Version = b.version
	}
	if d.Tier == 0 {
		d.Tier = 1
	}
	p := s.Params
	if p == nil {
		p = Params{}
	}
	b.build(d, p)
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("build %s: %w", s.Kind, err)
	}
	return d, nil
}

// MustBuild is Build for the built-in catalog
func MustBuild(s Spec) *gene.Definition {
	d, err := Build(s)
	if err != nil {
		panic(err)
	}
	return d
}

// StandardSpecs returns the default spec of every kind with its default tier
func StandardSpecs() []Spec {
	tiers := map[string]int{
		KindCloud: 1, KindProjectile: 1, KindBasicFruit: 1,
		KindCostReduction: 1, KindOvercharge: 2, KindTriggerProximity: 2,
		KindPoison: 1, KindSlow: 2, KindNutritious: 1,
		KindGrowthSpeed: 1, KindEnergyRoots: 2, KindThickBark: 3,
	}
	specs := make([]Spec, 0, len(builders))
	for _, kind := range Kinds() {
		specs = append(specs, Spec{Kind: kind, Tier: tiers[kind]})
	}
	return specs
}

// NewLibrary sorts definitions into role catalogs
func NewLibrary(logger *slog.Logger, defs ...*gene.Definition) *library.Library {
	var passives, actives, modifiers, payloads []*gene.Definition
	for _, d := range defs {
		switch d.Role {
		case gene.RoleActive:
			actives = append(actives, d)
		case gene.RoleModifier:
			modifiers = append(modifiers, d)
		case gene.RolePayload:
			payloads = append(payloads, d)
		default:
			passives = append(passives, d)
		}
	}
	return library.New(
		library.WithPassives(passives...),
		library.WithActives(actives...),
		library.WithModifiers(modifiers...),
		library.WithPayloads(payloads...),
		library.WithPlaceholder(gene.Placeholder()),
		library.WithLogger(logger),
	)
}

// Standard returns a library holding every built-in gene at default parameters
func Standard(logger *slog.Logger) *library.Library {
	specs := StandardSpecs()
	defs := make([]*gene.Definition, 0, len(specs))
	for _, s := range specs {
		defs = append(defs, MustBuild(s))
	}
	return NewLibrary(logger, defs...)
}
