package gene

import (
	"maps"
)

// Resolver maps a stored identity to a Definition
// Implementations never return nil; unknown identities bind to a placeholder
type Resolver interface {
	Resolve(id, name string) *Definition
}

// Data is the serializable scratch store of an instance
type Data struct {
	Version int                `json:"version"`
	Values  map[string]float64 `json:"values,omitempty"`
}

// Instance binds a definition reference to per-occurrence values
// The reference is stored as identity plus fallback name so it survives serialization
type Instance struct {
	geneID   string
	geneName string
	data     Data

	cached *Definition
}

// NewInstance creates an instance bound to def at its current version
func NewInstance(def *Definition) *Instance {
	return &Instance{
		geneID:   def.ID,
		geneName: def.Name,
		data:     Data{Version: def.Version, Values: make(map[string]float64)},
		cached:   def,
	}
}

// Restore creates an unbound instance from stored identity and data
// The definition resolves on the first Definition call or an explicit Bind pass
func Restore(id, name string, data Data) *Instance {
	values := make(map[string]float64, len(data.Values))
	maps.Copy(values, data.Values)
	return &Instance{
		geneID:   id,
		geneName: name,
		data:     Data{Version: data.Version, Values: values},
	}
}

// GeneID returns the stored identity
func (i *Instance) GeneID() string { return i.geneID }

// GeneName returns the stored fallback name
func (i *Instance) GeneName() string { return i.geneName }

// Data returns a copy of the scratch store
func (i *Instance) Data() Data {
	values := make(map[string]float64, len(i.data.Values))
	maps.Copy(values, i.data.Values)
	return Data{Version: i.data.Version, Values: values}
}

// Version returns the stored data version
func (i *Instance) Version() int { return i.data.Version }

// Bound reports whether a definition is cached
func (i *Instance) Bound() bool { return i.cached != nil }

// Definition resolves and caches the definition, migrating stored data once if it is behind
func (i *Instance) Definition(r Resolver) *Definition {
	if i.cached != nil {
		return i.cached
	}
	def := r.Resolve(i.geneID, i.geneName)
	i.bind(def)
	return def
}

// Rebind resolves the definition again and reports whether stored data was migrated
func (i *Instance) Rebind(r Resolver) (migrated bool) {
	i.cached = nil
	before := i.data.Version
	def := i.Definition(r)
	return !def.Fallback && before < def.Version
}

func (i *Instance) bind(def *Definition) {
	i.cached = def
	if def.Fallback {
		// Identity kept so a later library can still resolve the original gene
		return
	}
	if i.data.Values == nil {
		i.data.Values = make(map[string]float64)
	}
	if i.data.Version < def.Version {
		if def.Migrate != nil {
			def.Migrate(i.data.Version, &i.data)
		}
		i.data.Version = def.Version
	}
	i.geneID = def.ID
	i.geneName = def.Name
}

// As resolves the definition and narrows it to role
func (i *Instance) As(r Resolver, role Role) (*Definition, bool) {
	def := i.Definition(r)
	if def.Role != role {
		return nil, false
	}
	switch role {
	case RoleActive:
		return def, def.Active != nil
	case RoleModifier:
		return def, def.Modifier != nil
	case RolePayload:
		return def, def.Payload != nil
	default:
		return def, def.Passive != nil
	}
}

// Invalidate drops the cached definition, forcing resolution on next use
func (i *Instance) Invalidate() {
	i.cached = nil
}

// GetValue returns the stored value for key or def when absent
func (i *Instance) GetValue(key string, def float64) float64 {
	if v, ok := i.data.Values[key]; ok {
		return v
	}
	return def
}

// SetValue stores value under key
func (i *Instance) SetValue(key string, value float64) {
	if i.data.Values == nil {
		i.data.Values = make(map[string]float64)
	}
	i.data.Values[key] = value
}

// ModifyValue adds delta to key; an absent key is set to delta
func (i *Instance) ModifyValue(key string, delta float64) {
	i.SetValue(key, i.data.Values[key]+delta)
}

// Clone returns an independent instance sharing the definition reference
func (i *Instance) Clone() *Instance {
	c := Restore(i.geneID, i.geneName, i.data)
	c.cached = i.cached
	return c
}
