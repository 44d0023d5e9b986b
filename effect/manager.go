package effect

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/tick"
)

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithIDs replaces the effect id generator
func WithIDs(next func() string) ManagerOption {
	return func(m *Manager) { m.newID = next }
}

// Manager owns live effects, registering tick-driven ones on the clock and reaping finished ones
type Manager struct {
	mu      sync.Mutex
	factory *Factory
	clock   *tick.Clock
	env     *Env
	live    []Effect
	byID    map[string]Effect
	newID   func() string

	// retired holds clock-driven effects unregistered mid-tick until the clock drops them
	retired []Effect
}

// NewManager creates a manager and registers it on clock for reaping
func NewManager(factory *Factory, clock *tick.Clock, env Env, opts ...ManagerOption) *Manager {
	m := &Manager{
		factory: factory,
		clock:   clock,
		env:     &env,
		byID:    make(map[string]Effect),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.env.Logger == nil {
		m.env.Logger = factory.logger
	}
	if clock != nil {
		clock.Register(m)
		clock.OnCompleted(func(int) { m.recycle() })
	}
	return m
}

func (m *Manager) track(e Effect) {
	m.mu.Lock()
	m.live = append(m.live, e)
	m.byID[e.ID()] = e
	m.mu.Unlock()

	if u, ok := e.(tick.Updateable); ok && m.clock != nil {
		m.clock.Register(u)
	}
}

func (m *Manager) publishSpawn(e Effect, source gene.Host, radius float64, payloads int) {
	m.env.logger().Debug("effect spawned", "effect", e.ID(), "kind", e.Kind(), "prefab", e.Prefab())
	if m.env.Bus == nil {
		return
	}
	event.Publish(m.env.Bus, event.EffectSpawned{
		EffectID: e.ID(),
		Kind:     e.Kind(),
		Prefab:   e.Prefab(),
		Source:   hostID(source),
		Position: e.Position(),
		Radius:   radius,
		Payloads: payloads,
	})
}

// SpawnArea creates an area from req and starts it ticking on the next world tick
func (m *Manager) SpawnArea(req gene.AreaRequest) (string, error) {
	a, p, err := m.factory.getArea(req.Prefab)
	if err != nil {
		return "", err
	}
	a.init(m.newID(), p, req, m.env)
	m.track(a)
	m.publishSpawn(a, req.Source, a.radius, len(a.payloads))
	return a.id, nil
}

// SpawnProjectile creates a projectile homing on req.Target
func (m *Manager) SpawnProjectile(req gene.ProjectileRequest) (string, error) {
	if req.Target == nil || req.Target.Dying() {
		return "", ErrNoTarget
	}
	pr, p, err := m.factory.getProjectile(req.Prefab)
	if err != nil {
		return "", err
	}
	pr.init(m.newID(), p, req, m.env)
	m.track(pr)
	m.publishSpawn(pr, req.Source, 0, len(pr.payloads))
	return pr.id, nil
}

// SpawnFruit creates a growing or launched fruit
func (m *Manager) SpawnFruit(req gene.FruitRequest) (string, error) {
	f, p, err := m.factory.getFruit(req.Prefab)
	if err != nil {
		return "", err
	}
	f.init(m.newID(), p, req, m.env)
	m.track(f)
	m.publishSpawn(f, req.Source, 0, len(f.payloads))
	return f.id, nil
}

type framer interface {
	Frame(dt time.Duration)
}

// Frame advances frame-time motion and fades, then reaps finished effects
func (m *Manager) Frame(dt time.Duration) {
	for _, e := range m.Live() {
		if f, ok := e.(framer); ok {
			f.Frame(dt)
		}
	}
	m.reap()
}

// OnTick reaps effects that finished during frames or previous ticks
func (m *Manager) OnTick(int) {
	m.reap()
}

func (m *Manager) reap() {
	m.mu.Lock()
	var finished []Effect
	m.live = slices.DeleteFunc(m.live, func(e Effect) bool {
		if e.Done() {
			finished = append(finished, e)
			delete(m.byID, e.ID())
			return true
		}
		return false
	})
	m.mu.Unlock()

	for _, e := range finished {
		m.retire(e)
	}
}

func (m *Manager) retire(e Effect) {
	deferred := false
	if u, ok := e.(tick.Updateable); ok && m.clock != nil {
		m.clock.Unregister(u)
		deferred = m.clock.Ticking()
	}
	if m.env.Bus != nil {
		event.Publish(m.env.Bus, event.EffectExpired{EffectID: e.ID(), Kind: e.Kind(), Resolved: e.Resolved()})
	}
	if deferred {
		m.mu.Lock()
		m.retired = append(m.retired, e)
		m.mu.Unlock()
		return
	}
	m.factory.Return(e)
}

// recycle pools effects retired during the tick that just completed
func (m *Manager) recycle() {
	m.mu.Lock()
	retired := m.retired
	m.retired = nil
	m.mu.Unlock()
	for _, e := range retired {
		m.factory.Return(e)
	}
}

// Destroy removes an effect immediately without finishing it
func (m *Manager) Destroy(id string) bool {
	m.mu.Lock()
	e, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if d, ok := e.(interface{ destroy() }); ok {
		d.destroy()
	}
	m.reap()
	return true
}

// Clear destroys every live effect
func (m *Manager) Clear() {
	for _, e := range m.Live() {
		if d, ok := e.(interface{ destroy() }); ok {
			d.destroy()
		}
	}
	m.reap()
}

// Get returns a live effect by id
func (m *Manager) Get(id string) (Effect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	return e, ok
}

// Live returns a snapshot of live effects in spawn order
func (m *Manager) Live() []Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.live)
}

// Count returns the number of live effects
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Fruits returns live fruit, used for consumption queries
func (m *Manager) Fruits() []*Fruit {
	var out []*Fruit
	for _, e := range m.Live() {
		if f, ok := e.(*Fruit); ok && !f.Done() {
			out = append(out, f)
		}
	}
	return out
}
