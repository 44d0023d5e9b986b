// Package garden is the composition root: it wires the clock, bus, library and effects into a world
// of plants running gene sequences and creatures those sequences act on
package garden

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/genegarden/effect"
	"github.com/lixenwraith/genegarden/energy"
	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/genes"
	"github.com/lixenwraith/genegarden/library"
	"github.com/lixenwraith/genegarden/rng"
	"github.com/lixenwraith/genegarden/sequence"
	"github.com/lixenwraith/genegarden/service"
	"github.com/lixenwraith/genegarden/targeting"
	"github.com/lixenwraith/genegarden/tick"
	"github.com/lixenwraith/genegarden/vmath"
)

var (
	ErrUnknownPlant = errors.New("unknown plant")
	ErrDuplicateID  = errors.New("duplicate entity id")
)

// EatRadius is how close a creature must be to a ripe fruit to eat it
const EatRadius = 1.0

// Config sizes the world and tunes the executors it creates
type Config struct {
	Seed         int64
	Width        float64
	Height       float64
	CellSize     float64
	EvalInterval int
	Cooldown     int
}

// DefaultConfig returns a 40x20 world evaluating every tick
func DefaultConfig() Config {
	return Config{
		Seed:         1,
		Width:        40,
		Height:       20,
		CellSize:     1,
		EvalInterval: sequence.DefaultInterval,
		Cooldown:     sequence.DefaultCooldown,
	}
}

// Option configures a World
type Option func(*options)

type options struct {
	logger  *slog.Logger
	bus     *event.Bus
	library *library.Library
	prefabs []effect.Prefab
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBus shares an existing bus instead of creating one
func WithBus(bus *event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithLibrary registers lib; without it the standard catalog is built on first use
func WithLibrary(lib *library.Library) Option {
	return func(o *options) { o.library = lib }
}

// WithPrefabs registers extra effect prefabs next to the standard ones
func WithPrefabs(prefabs ...effect.Prefab) Option {
	return func(o *options) { o.prefabs = append(o.prefabs, prefabs...) }
}

// World holds plants, creatures and the shared engine collaborators
type World struct {
	mu       sync.RWMutex
	updateMu sync.Mutex

	cfg    Config
	logger *slog.Logger

	Services *service.Container
	Bus      *event.Bus
	Random   rng.Source
	Library  *library.Library
	Clock    *tick.Clock
	Timers   *tick.Timers
	Factory  *effect.Factory
	Effects  *effect.Manager
	Finder   *targeting.Finder

	plants    map[string]*Plant
	creatures map[string]*Creature
	// insertion orders keep iteration deterministic
	plantOrder    []string
	creatureOrder []string
}

// New builds a world and registers its capabilities in a fresh container
func New(cfg Config, opts ...Option) (*World, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 1
	}

	c := service.NewContainer(o.logger)
	bus := o.bus
	if bus == nil {
		bus = event.NewBus(o.logger)
	}
	if err := service.Register(c, bus); err != nil {
		return nil, err
	}
	if err := service.Register[rng.Source](c, rng.New(cfg.Seed)); err != nil {
		return nil, err
	}
	if o.library != nil {
		if err := service.Register(c, o.library); err != nil {
			return nil, err
		}
	}
	logger := o.logger
	service.Provide(c, func() (*library.Library, error) {
		return genes.Standard(logger), nil
	})

	lib, err := service.Resolve[*library.Library](c)
	if err != nil {
		return nil, fmt.Errorf("resolve library: %w", err)
	}

	w := &World{
		cfg:       cfg,
		logger:    o.logger,
		Services:  c,
		Bus:       bus,
		Random:    service.MustResolve[rng.Source](c),
		Library:   lib,
		Clock:     tick.NewClock(o.logger),
		Timers:    tick.NewTimers(o.logger),
		plants:    make(map[string]*Plant),
		creatures: make(map[string]*Creature),
	}
	w.Finder = &targeting.Finder{
		Population: targeting.PopulationFunc(w.targets),
		Grid:       targeting.Cell{Size: cfg.CellSize},
	}
	w.Factory = effect.NewFactory(o.logger, append(effect.StandardPrefabs(), o.prefabs...)...)

	w.Bus.SetClock(w.Clock.Current)
	w.Clock.Register(w.Timers)
	w.Effects = effect.NewManager(w.Factory, w.Clock, effect.Env{
		Finder:   w.Finder,
		Resolver: lib,
		Bus:      bus,
		Logger:   o.logger,
	})
	w.Clock.Register(w)
	w.subscribeCommands()

	if err := service.Register[gene.World](c, w); err != nil {
		return nil, err
	}
	if err := service.Register(c, w.Clock); err != nil {
		return nil, err
	}
	w.logger.Info("world created", "seed", cfg.Seed, "width", cfg.Width, "height", cfg.Height, "genes", lib.Len())
	return w, nil
}

// Config returns the configuration the world was built with
func (w *World) Config() Config { return w.cfg }

// Step advances one world tick and drains posted events, under the update lock
func (w *World) Step() int {
	w.updateMu.Lock()
	defer w.updateMu.Unlock()
	now := w.Clock.Advance()
	w.Bus.Drain()
	return now
}

// Frame advances frame-time effects under the update lock
func (w *World) Frame(dt time.Duration) {
	w.updateMu.Lock()
	defer w.updateMu.Unlock()
	w.Effects.Frame(dt)
}

// RunSafe executes fn while holding the update lock
func (w *World) RunSafe(fn func()) {
	w.updateMu.Lock()
	defer w.updateMu.Unlock()
	fn()
}

// Plant instantiates tpl at pos and starts it on the next tick
func (w *World) Plant(tpl *sequence.Template, pos vmath.Vec2) (*Plant, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	st := sequence.Instantiate(tpl, w.logger)
	pool := energy.NewPool(tpl.MaxEnergy, tpl.MaxEnergy, tpl.EnergyRegenRate)
	p, err := w.attach(st.ID, pos, st, pool)
	if err != nil {
		return nil, err
	}
	w.logger.Info("plant planted", "plant", p.id, "template", tpl.Name, "slots", st.Len())
	return p, nil
}

func (w *World) attach(id string, pos vmath.Vec2, st *sequence.State, pool *energy.Pool) (*Plant, error) {
	w.mu.Lock()
	if _, exists := w.plants[id]; exists {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: plant %s", ErrDuplicateID, id)
	}
	p := &Plant{id: id, pos: pos, Energy: pool, Stats: NewStats()}
	p.Executor = sequence.NewExecutor(st, sequence.Deps{
		Host:     p,
		Energy:   pool,
		Bus:      w.Bus,
		Random:   w.Random,
		Resolver: w.Library,
		World:    w,
		Timers:   w.Timers,
		Logger:   w.logger,
	}, sequence.WithInterval(w.cfg.EvalInterval), sequence.WithCooldown(w.cfg.Cooldown))
	w.plants[id] = p
	w.plantOrder = append(w.plantOrder, id)
	w.mu.Unlock()

	p.refreshPassives()
	w.Clock.Register(p)
	return p, nil
}

// Remove destroys a plant, cancelling its delayed executions
func (w *World) Remove(id string) error {
	w.mu.Lock()
	p, ok := w.plants[id]
	if ok {
		delete(w.plants, id)
		w.plantOrder = slices.DeleteFunc(w.plantOrder, func(s string) bool { return s == id })
	}
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlant, id)
	}

	p.Executor.Destroy()
	w.Clock.Unregister(p)
	w.logger.Info("plant removed", "plant", id)
	return nil
}

// PlantByID returns a live plant
func (w *World) PlantByID(id string) (*Plant, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.plants[id]
	return p, ok
}

// Plants returns live plants in planting order
func (w *World) Plants() []*Plant {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Plant, 0, len(w.plantOrder))
	for _, id := range w.plantOrder {
		out = append(out, w.plants[id])
	}
	return out
}

// SpawnCreature adds a creature; an empty id gets a fresh one
func (w *World) SpawnCreature(id, species string, pos vmath.Vec2, maxHealth float64) (*Creature, error) {
	if id == "" {
		id = uuid.NewString()
	}
	c := NewCreature(id, species, pos, maxHealth)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.creatures[id]; exists {
		return nil, fmt.Errorf("%w: creature %s", ErrDuplicateID, id)
	}
	w.creatures[id] = c
	w.creatureOrder = append(w.creatureOrder, id)
	return c, nil
}

// Populate scatters n creatures of species over the world using the world RNG
func (w *World) Populate(species string, n int, maxHealth float64) {
	for range n {
		pos := vmath.V2(w.Random.Float(0, w.cfg.Width), w.Random.Float(0, w.cfg.Height))
		if _, err := w.SpawnCreature("", species, pos, maxHealth); err != nil {
			w.logger.Error("populate failed", "error", err)
			return
		}
	}
}

// Creatures returns living and dying creatures in spawn order
func (w *World) Creatures() []*Creature {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Creature, 0, len(w.creatureOrder))
	for _, id := range w.creatureOrder {
		out = append(out, w.creatures[id])
	}
	return out
}

func (w *World) targets() []gene.Target {
	list := w.Creatures()
	out := make([]gene.Target, len(list))
	for i, c := range list {
		out[i] = c
	}
	return out
}

// OnTick moves creatures, lets them eat ripe fruit and removes the dead
func (w *World) OnTick(int) {
	bounds := vmath.V2(w.cfg.Width, w.cfg.Height)
	creatures := w.Creatures()
	for _, c := range creatures {
		c.update(w.Random, bounds)
	}

	for _, f := range w.Effects.Fruits() {
		if f.Done() || !f.Ripe() {
			continue
		}
		if t, ok := w.Finder.FindNearest(f.Position(), EatRadius); ok {
			f.Consume(t)
		}
	}

	var dead []*Creature
	for _, c := range creatures {
		if c.Dying() {
			dead = append(dead, c)
		}
	}
	if len(dead) == 0 {
		return
	}

	w.mu.Lock()
	for _, c := range dead {
		delete(w.creatures, c.id)
	}
	w.creatureOrder = slices.DeleteFunc(w.creatureOrder, func(id string) bool {
		_, ok := w.creatures[id]
		return !ok
	})
	w.mu.Unlock()

	for _, c := range dead {
		w.logger.Debug("creature died", "creature", c.id, "species", c.species)
		event.Publish(w.Bus, event.CreatureDied{Creature: c.id, Species: c.species, Position: c.Position()})
	}
}

// FindNearest returns the closest living creature within radius of origin
func (w *World) FindNearest(origin vmath.Vec2, radius float64) (gene.Target, bool) {
	return w.Finder.FindNearest(origin, radius)
}

// HasAnyWithin reports whether any living creature is within radius of origin
func (w *World) HasAnyWithin(origin vmath.Vec2, radius float64) bool {
	return w.Finder.HasAnyWithinRadius(origin, radius)
}

func (w *World) SpawnArea(req gene.AreaRequest) (string, error) {
	return w.Effects.SpawnArea(req)
}

func (w *World) SpawnProjectile(req gene.ProjectileRequest) (string, error) {
	return w.Effects.SpawnProjectile(req)
}

// SpawnFruit shortens growth by the source plant's growth speed
func (w *World) SpawnFruit(req gene.FruitRequest) (string, error) {
	if req.Launch == nil && req.Source != nil {
		if p, ok := w.PlantByID(req.Source.ID()); ok {
			if g := p.GrowthSpeed(); g > 0 && req.GrowthTicks > 0 {
				req.GrowthTicks = max(1, int(math.Ceil(float64(req.GrowthTicks)/g)))
			}
		}
	}
	return w.Effects.SpawnFruit(req)
}

// FruitPoints returns the fruit sites of host when it is a plant of this world
func (w *World) FruitPoints(host gene.Host) []vmath.Vec2 {
	if host == nil {
		return nil
	}
	p, ok := w.PlantByID(host.ID())
	if !ok {
		return nil
	}
	return p.FruitPoints()
}
