// Package library holds the gene catalogs and resolves stored identities to definitions
package library

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/lixenwraith/genegarden/gene"
)

// Option configures a Library
type Option func(*Library)

// WithPassives sets the passive catalog
func WithPassives(defs ...*gene.Definition) Option {
	return func(l *Library) { l.passives = append(l.passives, defs...) }
}

// WithActives sets the active catalog
func WithActives(defs ...*gene.Definition) Option {
	return func(l *Library) { l.actives = append(l.actives, defs...) }
}

// WithModifiers sets the modifier catalog
func WithModifiers(defs ...*gene.Definition) Option {
	return func(l *Library) { l.modifiers = append(l.modifiers, defs...) }
}

// WithPayloads sets the payload catalog
func WithPayloads(defs ...*gene.Definition) Option {
	return func(l *Library) { l.payloads = append(l.payloads, defs...) }
}

// WithPlaceholder sets the definition returned for unresolvable identities
func WithPlaceholder(def *gene.Definition) Option {
	return func(l *Library) { l.placeholder = def }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// Library is a read-only set of gene catalogs with lazy lookup indices
// Safe for concurrent use after construction
type Library struct {
	passives  []*gene.Definition
	actives   []*gene.Definition
	modifiers []*gene.Definition
	payloads  []*gene.Definition

	placeholder *gene.Definition
	phOnce      sync.Once
	logger      *slog.Logger

	indexOnce sync.Once
	byID      map[string]*gene.Definition
	byName    map[string]*gene.Definition
}

// New creates a library from options
func New(opts ...Option) *Library {
	l := &Library{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

type catalog struct {
	name string
	defs []*gene.Definition
}

func (l *Library) catalogs() []catalog {
	return []catalog{
		{"passive", l.passives},
		{"active", l.actives},
		{"modifier", l.modifiers},
		{"payload", l.payloads},
	}
}

func (l *Library) buildIndex() {
	l.byID = make(map[string]*gene.Definition)
	l.byName = make(map[string]*gene.Definition)

	for _, cat := range l.catalogs() {
		for _, def := range cat.defs {
			if def == nil {
				continue
			}
			if err := def.Validate(); err != nil {
				l.logger.Error("invalid gene in catalog", "catalog", cat.name, "error", err)
			}
			if def.ID != "" {
				if prev, dup := l.byID[def.ID]; dup {
					l.logger.Warn("duplicate gene id, keeping first",
						"catalog", cat.name, "id", def.ID, "kept", prev.Name, "dropped", def.Name)
				} else {
					l.byID[def.ID] = def
				}
			}
			if def.Name != "" {
				if prev, dup := l.byName[def.Name]; dup {
					if prev != def {
						l.logger.Warn("duplicate gene name, keeping first",
							"catalog", cat.name, "name", def.Name, "kept", prev.ID, "dropped", def.ID)
					}
				} else {
					l.byName[def.Name] = def
				}
			}
		}
	}
}

func (l *Library) index() {
	l.indexOnce.Do(l.buildIndex)
}

// ByID returns the definition registered under id
func (l *Library) ByID(id string) (*gene.Definition, bool) {
	if id == "" {
		return nil, false
	}
	l.index()
	def, ok := l.byID[id]
	return def, ok
}

// ByName returns the definition registered under name
func (l *Library) ByName(name string) (*gene.Definition, bool) {
	if name == "" {
		return nil, false
	}
	l.index()
	def, ok := l.byName[name]
	return def, ok
}

// Resolve maps a stored identity to a definition: by id, then by name, then the placeholder
// Never returns nil
func (l *Library) Resolve(id, name string) *gene.Definition {
	if def, ok := l.ByID(id); ok {
		return def
	}
	if def, ok := l.ByName(name); ok {
		l.logger.Warn("gene resolved by name fallback", "id", id, "name", name, "resolved_id", def.ID)
		return def
	}
	l.logger.Error("gene not found, binding placeholder", "id", id, "name", name)
	return l.Placeholder()
}

// Placeholder returns the configured placeholder, manufacturing one when absent
func (l *Library) Placeholder() *gene.Definition {
	l.phOnce.Do(func() {
		if l.placeholder == nil {
			l.logger.Error("no placeholder gene configured, using built-in")
			l.placeholder = gene.Placeholder()
		}
	})
	return l.placeholder
}

// All returns every catalog entry in catalog order: passives, actives, modifiers, payloads
func (l *Library) All() []*gene.Definition {
	var out []*gene.Definition
	for _, cat := range l.catalogs() {
		for _, def := range cat.defs {
			if def != nil {
				out = append(out, def)
			}
		}
	}
	return out
}

// ByRole returns a copy of the catalog for role
func (l *Library) ByRole(role gene.Role) []*gene.Definition {
	var src []*gene.Definition
	switch role {
	case gene.RoleActive:
		src = l.actives
	case gene.RoleModifier:
		src = l.modifiers
	case gene.RolePayload:
		src = l.payloads
	default:
		src = l.passives
	}
	return slices.DeleteFunc(slices.Clone(src), func(d *gene.Definition) bool { return d == nil })
}

// Len returns the number of indexed identities
func (l *Library) Len() int {
	l.index()
	return len(l.byID)
}
