package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/genes"
	"github.com/lixenwraith/genegarden/library"
)

// GeneDoc is one authored gene; Kind picks the behavior, Params tune it
type GeneDoc struct {
	ID          string             `yaml:"id" json:"id,omitempty" jsonschema:"description=Stable identity; derived from the kind when empty"`
	Name        string             `yaml:"name" json:"name,omitempty"`
	Kind        string             `yaml:"kind" json:"kind" jsonschema:"minLength=1"`
	Tier        int                `yaml:"tier" json:"tier,omitempty" jsonschema:"minimum=0"`
	Version     int                `yaml:"version" json:"version,omitempty" jsonschema:"description=Data version to raise when stored values change meaning,minimum=0"`
	Description string             `yaml:"description" json:"description,omitempty"`
	Color       string             `yaml:"color" json:"color,omitempty" jsonschema:"pattern=^#[0-9a-fA-F]{6}$"`
	Prefab      string             `yaml:"prefab" json:"prefab,omitempty"`
	Params      map[string]float64 `yaml:"params" json:"params,omitempty" jsonschema:"description=Kind specific tunables"`
}

func (g GeneDoc) spec() genes.Spec {
	return genes.Spec{
		ID:          g.ID,
		Name:        g.Name,
		Kind:        g.Kind,
		Tier:        g.Tier,
		Version:     g.Version,
		Description: g.Description,
		Color:       g.Color,
		Prefab:      g.Prefab,
		Params:      genes.Params(g.Params),
	}
}

// tunes reports whether g only retunes the standard gene of its kind
func (g GeneDoc) tunes() bool {
	return g.ID == "" && g.Name == ""
}

// Catalog is the authored gene list
// With IncludeStandard, an entry carrying only a kind and params replaces the standard gene of that kind
type Catalog struct {
	IncludeStandard bool      `yaml:"include_standard" json:"include_standard"`
	Genes           []GeneDoc `yaml:"genes" json:"genes,omitempty"`
}

func (c Catalog) Validate() error {
	kinds := genes.Kinds()
	var errs []error
	for i, g := range c.Genes {
		if !slices.Contains(kinds, g.Kind) {
			errs = append(errs, fmt.Errorf("genes[%d]: %w: %q", i, genes.ErrUnknownKind, g.Kind))
		}
	}
	return errors.Join(errs...)
}

// Specs merges the standard specs with the authored ones
func (c Catalog) Specs() []genes.Spec {
	var specs []genes.Spec
	if c.IncludeStandard {
		specs = genes.StandardSpecs()
	}
	for _, g := range c.Genes {
		s := g.spec()
		if c.IncludeStandard && g.tunes() {
			if i := slices.IndexFunc(specs, func(o genes.Spec) bool { return o.Kind == s.Kind && o.ID == "" && o.Name == "" }); i >= 0 {
				if s.Tier == 0 {
					s.Tier = specs[i].Tier
				}
				specs[i] = s
				continue
			}
		}
		specs = append(specs, s)
	}
	return specs
}

// Library builds every spec and sorts the definitions into a library
func (c Catalog) Library(logger *slog.Logger) (*library.Library, error) {
	specs := c.Specs()
	defs := make([]*gene.Definition, 0, len(specs))
	for _, s := range specs {
		def, err := genes.Build(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		defs = append(defs, def)
	}
	return genes.NewLibrary(logger, defs...), nil
}
