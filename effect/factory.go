package effect

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lixenwraith/genegarden/event"
)

// Factory registers prefabs and pools effect values per prefab
type Factory struct {
	mu          sync.RWMutex
	prefabs     map[string]Prefab
	areas       map[string]*Pool[Area]
	projectiles map[string]*Pool[Projectile]
	fruits      map[string]*Pool[Fruit]
	logger      *slog.Logger
}

// NewFactory creates a factory with the given prefabs
func NewFactory(logger *slog.Logger, prefabs ...Prefab) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{
		prefabs:     make(map[string]Prefab),
		areas:       make(map[string]*Pool[Area]),
		projectiles: make(map[string]*Pool[Projectile]),
		fruits:      make(map[string]*Pool[Fruit]),
		logger:      logger,
	}
	for _, p := range prefabs {
		f.Register(p)
	}
	return f
}

// StandardPrefabs returns the prefabs used by the standard gene catalog
func StandardPrefabs() []Prefab {
	return []Prefab{
		{Name: "cloud", Kind: event.KindArea, Color: "#8fbf8f", Fade: DefaultFade},
		{Name: "seed", Kind: event.KindProjectile, Color: "#c8a060"},
		{Name: "fruit", Kind: event.KindFruit, Color: "#d04040", Friction: 2},
	}
}

// Register adds or replaces a prefab
func (f *Factory) Register(p Prefab) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefabs[p.Name] = p
	switch p.Kind {
	case event.KindArea:
		if f.areas[p.Name] == nil {
			f.areas[p.Name] = &Pool[Area]{}
		}
	case event.KindProjectile:
		if f.projectiles[p.Name] == nil {
			f.projectiles[p.Name] = &Pool[Projectile]{}
		}
	case event.KindFruit:
		if f.fruits[p.Name] == nil {
			f.fruits[p.Name] = &Pool[Fruit]{}
		}
	}
}

// Prefab returns a registered prefab
func (f *Factory) Prefab(name string) (Prefab, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.prefabs[name]
	return p, ok
}

// Prefabs returns registered prefab names, sorted
func (f *Factory) Prefabs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.prefabs))
	for name := range f.prefabs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *Factory) lookup(name string, kind event.EffectKind) (Prefab, error) {
	p, ok := f.Prefab(name)
	if !ok {
		f.logger.Error("spawn aborted, prefab not registered", "prefab", name, "kind", kind)
		return Prefab{}, fmt.Errorf("%w: %q", ErrUnknownPrefab, name)
	}
	if p.Kind != kind {
		f.logger.Error("spawn aborted, prefab kind mismatch", "prefab", name, "want", kind, "have", p.Kind)
		return Prefab{}, fmt.Errorf("%w: %q is %s, not %s", ErrPrefabKind, name, p.Kind, kind)
	}
	return p, nil
}

// Prewarm allocates n idle values for a prefab
func (f *Factory) Prewarm(name string, n int) error {
	p, ok := f.Prefab(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPrefab, name)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	switch p.Kind {
	case event.KindArea:
		f.areas[name].Prewarm(n)
	case event.KindProjectile:
		f.projectiles[name].Prewarm(n)
	case event.KindFruit:
		f.fruits[name].Prewarm(n)
	}
	return nil
}

func (f *Factory) getArea(name string) (*Area, Prefab, error) {
	p, err := f.lookup(name, event.KindArea)
	if err != nil {
		return nil, p, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.areas[name].Get(), p, nil
}

func (f *Factory) getProjectile(name string) (*Projectile, Prefab, error) {
	p, err := f.lookup(name, event.KindProjectile)
	if err != nil {
		return nil, p, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.projectiles[name].Get(), p, nil
}

func (f *Factory) getFruit(name string) (*Fruit, Prefab, error) {
	p, err := f.lookup(name, event.KindFruit)
	if err != nil {
		return nil, p, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fruits[name].Get(), p, nil
}

// Return recycles a finished effect into its prefab pool
func (f *Factory) Return(e Effect) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	switch v := e.(type) {
	case *Area:
		if pool := f.areas[v.prefab]; pool != nil {
			*v = Area{}
			pool.Put(v)
		}
	case *Projectile:
		if pool := f.projectiles[v.prefab]; pool != nil {
			*v = Projectile{}
			pool.Put(v)
		}
	case *Fruit:
		if pool := f.fruits[v.prefab]; pool != nil {
			*v = Fruit{}
			pool.Put(v)
		}
	}
}

// PoolStats returns idle, created and reused counts for a prefab
func (f *Factory) PoolStats(name string) (idle, created, reused int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if p := f.areas[name]; p != nil {
		return p.Stats()
	}
	if p := f.projectiles[name]; p != nil {
		return p.Stats()
	}
	if p := f.fruits[name]; p != nil {
		return p.Stats()
	}
	return 0, 0, 0
}
