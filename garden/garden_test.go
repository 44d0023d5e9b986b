package garden

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/genes"
	"github.com/lixenwraith/genegarden/library"
	"github.com/lixenwraith/genegarden/sequence"
	"github.com/lixenwraith/genegarden/storage"
	"github.com/lixenwraith/genegarden/vmath"
)

var quiet = slog.New(slog.DiscardHandler)

func newWorld(t *testing.T, lib *library.Library) *World {
	t.Helper()
	opts := []Option{WithLogger(quiet)}
	if lib != nil {
		opts = append(opts, WithLibrary(lib))
	}
	w, err := New(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func geneNamed(t *testing.T, w *World, name string) *gene.Definition {
	t.Helper()
	def, ok := w.Library.ByName(name)
	if !ok {
		t.Fatalf("gene %q not in library", name)
	}
	return def
}

func singleSlot(t *testing.T, w *World, active string, payloads ...string) *sequence.Template {
	t.Helper()
	tpl := sequence.NewTemplate(active)
	slot := sequence.SlotTemplate{Active: geneNamed(t, w, active)}
	for _, p := range payloads {
		slot.Payloads = append(slot.Payloads, sequence.Entry{Gene: geneNamed(t, w, p)})
	}
	tpl.Slots = []sequence.SlotTemplate{slot}
	return tpl
}

// still spawns a creature that does not wander
func still(t *testing.T, w *World, id string, pos vmath.Vec2) *Creature {
	t.Helper()
	c, err := w.SpawnCreature(id, "beetle", pos, 0)
	if err != nil {
		t.Fatalf("spawn creature: %v", err)
	}
	c.speed = 0
	return c
}

func TestStatsStacking(t *testing.T) {
	s := NewStats()
	if s.Value(gene.StatDefense) != 1 {
		t.Fatalf("untouched stat = %v, want 1", s.Value(gene.StatDefense))
	}

	s.ApplyStat("roots", gene.StatEnergyGeneration, 1.25, true, -1)
	s.ApplyStat("roots", gene.StatEnergyGeneration, 1.25, true, -1)
	if v := s.Value(gene.StatEnergyGeneration); v != 1.5 {
		t.Errorf("additive = %v, want 1.5", v)
	}

	s.ApplyStat("growth", gene.StatGrowthSpeed, 2, false, -1)
	s.ApplyStat("growth", gene.StatGrowthSpeed, 2, false, -1)
	if v := s.Value(gene.StatGrowthSpeed); v != 4 {
		t.Errorf("multiplicative = %v, want 4", v)
	}

	if !s.ApplyStat("bark", gene.StatDefense, 1.5, true, 1) {
		t.Fatal("first application refused")
	}
	if s.ApplyStat("bark", gene.StatDefense, 1.5, true, 1) {
		t.Error("application past max stacks accepted")
	}
	if s.Stacks("bark") != 1 || s.Value(gene.StatDefense) != 1.5 {
		t.Errorf("stacks %d value %v", s.Stacks("bark"), s.Value(gene.StatDefense))
	}

	s.Reset()
	if s.Value(gene.StatGrowthSpeed) != 1 || s.Stacks("growth") != 0 {
		t.Error("reset kept contributions")
	}
}

func TestCreatureStatusAndFeeding(t *testing.T) {
	c := NewCreature("c", "beetle", vmath.V2(5, 5), 10)
	c.ApplyStatus(gene.Status{Name: "poison", DamagePerTick: 2, SpeedFactor: 1, DurationTicks: 2})
	c.ApplyStatus(gene.Status{Name: "slow", SpeedFactor: 0.5, DurationTicks: 1})
	c.ApplyStatus(gene.Status{Name: "poison", DamagePerTick: 3, SpeedFactor: 1, DurationTicks: 2})
	if len(c.Statuses()) != 2 {
		t.Fatalf("statuses = %v, want poison refreshed not stacked", c.Statuses())
	}

	c.update(nil, vmath.Vec2{})
	c.update(nil, vmath.Vec2{})
	if c.Health() != 4 {
		t.Errorf("health = %v, want 4 after two ticks of 3", c.Health())
	}
	if len(c.Statuses()) != 0 {
		t.Errorf("statuses left: %v", c.Statuses())
	}

	c.Feed(100)
	c.Heal(100)
	if c.Hunger() != 0 || c.Health() != 10 {
		t.Errorf("hunger %v health %v", c.Hunger(), c.Health())
	}

	c.TakeDamage(20)
	if !c.Dying() || c.Health() != 0 {
		t.Fatal("creature survived lethal damage")
	}
	c.Heal(5)
	if c.Health() != 0 {
		t.Error("dying creature healed")
	}
}

func TestCreatureWanderStaysInBounds(t *testing.T) {
	w := newWorld(t, nil)
	c := NewCreature("c", "beetle", vmath.V2(0, 0), 0)
	c.speed = 3
	bounds := vmath.V2(4, 4)
	for range 200 {
		c.update(w.Random, bounds)
		c.Feed(MaxHunger)
		p := c.Position()
		if p.X < 0 || p.X > 4 || p.Y < 0 || p.Y > 4 {
			t.Fatalf("creature left bounds at %+v", p)
		}
	}
}

func TestWorldBuildsStandardLibraryOnDemand(t *testing.T) {
	w := newWorld(t, nil)
	if w.Library.Len() != 12 {
		t.Fatalf("library len = %d, want 12", w.Library.Len())
	}

	custom := genes.NewLibrary(quiet, genes.MustBuild(genes.Spec{Kind: genes.KindCloud}))
	w2 := newWorld(t, custom)
	if w2.Library != custom {
		t.Fatal("registered library not used")
	}
}

func TestPlantCloudPoisonsNearbyCreature(t *testing.T) {
	w := newWorld(t, nil)
	var executed []event.GeneExecuted
	event.Subscribe(w.Bus, func(e event.GeneExecuted) { executed = append(executed, e) })

	p, err := w.Plant(singleSlot(t, w, "Cloud", "Poison"), vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	c := still(t, w, "c1", vmath.V2(11, 10))

	for range 4 {
		w.Step()
	}
	if len(executed) == 0 || !executed[0].Success || executed[0].Plant != p.ID() {
		t.Fatalf("executions = %+v", executed)
	}
	if c.Health() >= c.MaxHealth() {
		t.Errorf("creature untouched, health %v", c.Health())
	}
}

func TestPlantProjectileHitsOnFrame(t *testing.T) {
	w := newWorld(t, nil)
	tpl := singleSlot(t, w, "Projectile")
	tpl.BaseRechargeTime = 100
	if _, err := w.Plant(tpl, vmath.V2(10, 10)); err != nil {
		t.Fatalf("plant: %v", err)
	}
	c := still(t, w, "c1", vmath.V2(12, 10))

	w.Step()
	if w.Effects.Count() != 1 {
		t.Fatalf("live effects = %d, want the projectile", w.Effects.Count())
	}
	w.Frame(500 * time.Millisecond)
	if c.Health() != c.MaxHealth()-5 {
		t.Errorf("health = %v, want %v", c.Health(), c.MaxHealth()-5)
	}
	if w.Effects.Count() != 0 {
		t.Errorf("projectile not reaped")
	}
}

func TestFruitGrowsFasterAndFeeds(t *testing.T) {
	w := newWorld(t, nil)
	tpl := singleSlot(t, w, "Basic Fruit", "Nutritious")
	tpl.Passives = []sequence.Entry{{Gene: geneNamed(t, w, "Growth Speed"), Power: 2}}
	tpl.BaseRechargeTime = 100

	p, err := w.Plant(tpl, vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	if g := p.GrowthSpeed(); g != 3 {
		t.Fatalf("growth speed = %v, want 3", g)
	}
	c := still(t, w, "c1", p.FruitPoints()[0])
	c.hunger = 50

	for range 4 {
		w.Step()
	}
	if c.Hunger() >= 50 {
		t.Errorf("hunger = %v, fruit not eaten", c.Hunger())
	}
	if len(w.Effects.Fruits()) != 0 {
		t.Errorf("eaten fruit still live")
	}
}

func TestCreatureDeathPublished(t *testing.T) {
	w := newWorld(t, nil)
	var died []event.CreatureDied
	event.Subscribe(w.Bus, func(e event.CreatureDied) { died = append(died, e) })

	c := still(t, w, "c1", vmath.V2(1, 1))
	still(t, w, "c2", vmath.V2(2, 2))
	c.TakeDamage(1000)
	w.Step()

	if len(died) != 1 || died[0].Creature != "c1" || died[0].Species != "beetle" {
		t.Fatalf("died = %+v", died)
	}
	if n := len(w.Creatures()); n != 1 {
		t.Errorf("creatures = %d, want 1", n)
	}
}

func TestRemovePlant(t *testing.T) {
	w := newWorld(t, nil)
	p, err := w.Plant(singleSlot(t, w, "Cloud"), vmath.V2(1, 1))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	before := w.Clock.Count()
	if err := w.Remove(p.ID()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if w.Clock.Count() != before-1 || p.Executor.Alive() {
		t.Error("plant still ticking")
	}
	if err := w.Remove(p.ID()); !errors.Is(err, ErrUnknownPlant) {
		t.Errorf("second remove = %v", err)
	}
	if _, err := w.Plant(&sequence.Template{Name: "empty"}, vmath.V2(0, 0)); !errors.Is(err, sequence.ErrInvalidTemplate) {
		t.Errorf("invalid template planted: %v", err)
	}
}

func TestSameSeedSameWorld(t *testing.T) {
	run := func() []vmath.Vec2 {
		w := newWorld(t, nil)
		for i, id := range []string{"a", "b", "c"} {
			if _, err := w.SpawnCreature(id, "beetle", vmath.V2(float64(5+i), 5), 0); err != nil {
				t.Fatal(err)
			}
		}
		for range 50 {
			w.Step()
		}
		var out []vmath.Vec2
		for _, c := range w.Creatures() {
			out = append(out, c.Position())
		}
		return out
	}
	a, b := run(), run()
	if len(a) != 3 || len(a) != len(b) {
		t.Fatalf("populations differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("creature %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	lib := genes.Standard(quiet)
	w := newWorld(t, lib)
	tpl := singleSlot(t, w, "Cloud", "Poison")
	tpl.Slots = append(tpl.Slots, sequence.SlotTemplate{Active: geneNamed(t, w, "Projectile")})
	p, err := w.Plant(tpl, vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	c := still(t, w, "c1", vmath.V2(30, 15))
	c.hunger = 12
	for range 3 {
		w.Step()
	}

	store := storage.NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := w.Save(ctx, store, "slot-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := newWorld(t, lib)
	if err := restored.Load(ctx, store, "slot-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Clock.Current() != w.Clock.Current() {
		t.Errorf("tick = %d, want %d", restored.Clock.Current(), w.Clock.Current())
	}
	rp, ok := restored.PlantByID(p.ID())
	if !ok {
		t.Fatal("plant not restored")
	}
	if rp.State().Cursor != p.State().Cursor || rp.State().Cycles != p.State().Cycles {
		t.Errorf("cursor/cycles = %d/%d, want %d/%d", rp.State().Cursor, rp.State().Cycles, p.State().Cursor, p.State().Cycles)
	}
	if rp.Energy.Current() != p.Energy.Current() {
		t.Errorf("energy = %v, want %v", rp.Energy.Current(), p.Energy.Current())
	}
	for _, inst := range rp.State().Instances() {
		if !inst.Bound() {
			t.Errorf("%s unbound after restore", inst.GeneName())
		}
	}
	cs := restored.Creatures()
	if len(cs) != 1 || cs[0].Hunger() != c.Hunger() || cs[0].Position() != c.Position() {
		t.Errorf("creature not restored: %+v", cs)
	}

	if err := restored.Load(ctx, store, "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing snapshot = %v", err)
	}
}

func TestSnapshotKeepsBaseRegen(t *testing.T) {
	lib := genes.Standard(quiet)
	w := newWorld(t, lib)
	tpl := singleSlot(t, w, "Cloud", "Poison")
	tpl.Passives = []sequence.Entry{{Gene: geneNamed(t, w, "Energy Roots")}}
	p, err := w.Plant(tpl, vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	if p.Energy.GenerationMultiplier() <= 1 {
		t.Fatalf("generation multiplier = %v, want energy roots applied", p.Energy.GenerationMultiplier())
	}
	want := p.Energy.Regen()

	for i := range 3 {
		if err := w.Restore(w.Snapshot("loop")); err != nil {
			t.Fatalf("restore %d: %v", i, err)
		}
	}
	rp, ok := w.PlantByID(p.ID())
	if !ok {
		t.Fatal("plant not restored")
	}
	if got := rp.Energy.Regen(); got != want {
		t.Errorf("regen after three round trips = %v, want %v", got, want)
	}
	if rp.Energy.BaseRegen() != tpl.EnergyRegenRate {
		t.Errorf("base regen = %v, want %v", rp.Energy.BaseRegen(), tpl.EnergyRegenRate)
	}
}

func TestSnapshotKeepsEvaluationPhase(t *testing.T) {
	lib := genes.Standard(quiet)
	cfg := DefaultConfig()
	cfg.EvalInterval = 3
	build := func() *World {
		w, err := New(cfg, WithLogger(quiet), WithLibrary(lib))
		if err != nil {
			t.Fatalf("new world: %v", err)
		}
		return w
	}
	w := build()
	p, err := w.Plant(singleSlot(t, w, "Cloud", "Poison"), vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	for range 4 {
		w.Step()
	}
	if p.Executor.Evaluations() != 1 || p.Executor.Elapsed() != 1 {
		t.Fatalf("evaluations %d elapsed %d, want 1 and 1", p.Executor.Evaluations(), p.Executor.Elapsed())
	}

	restored := build()
	if err := restored.Restore(w.Snapshot("phase")); err != nil {
		t.Fatalf("restore: %v", err)
	}
	rp, _ := restored.PlantByID(p.ID())
	for range 2 {
		w.Step()
		restored.Step()
	}
	if p.Executor.Evaluations() != 2 || rp.Executor.Evaluations() != 1 {
		t.Errorf("evaluations original %d restored %d, want 2 and 1", p.Executor.Evaluations(), rp.Executor.Evaluations())
	}
}

func TestSnapshotContinuesRandomStream(t *testing.T) {
	w := newWorld(t, nil)
	for i, id := range []string{"a", "b"} {
		if _, err := w.SpawnCreature(id, "beetle", vmath.V2(float64(10+i), 8), 0); err != nil {
			t.Fatal(err)
		}
	}
	for range 7 {
		w.Step()
	}

	restored := newWorld(t, nil)
	if err := restored.Restore(w.Snapshot("walk")); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for range 10 {
		w.Step()
		restored.Step()
	}
	a, b := w.Creatures(), restored.Creatures()
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("populations %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Position() != b[i].Position() {
			t.Errorf("creature %s diverged: %+v vs %+v", a[i].ID(), a[i].Position(), b[i].Position())
		}
	}
}

func TestPostedCommandsApplyOnStep(t *testing.T) {
	w := newWorld(t, nil)
	p, err := w.Plant(singleSlot(t, w, "Cloud", "Poison"), vmath.V2(10, 10))
	if err != nil {
		t.Fatalf("plant: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Bus.Post(event.CreatureSpawnRequested{Species: "beetle", Count: 3})
		w.Bus.Post(event.CreatureSpawnRequested{Species: "", Count: 2})
		w.Bus.Post(event.PlantRemovalRequested{Plant: p.ID()})
		w.Bus.Post(event.PlantRemovalRequested{Plant: "ghost"})
		close(done)
	}()
	<-done
	if len(w.Creatures()) != 0 || len(w.Plants()) != 1 {
		t.Fatal("posted commands applied before the world stepped")
	}

	w.Step()
	if n := len(w.Creatures()); n != 3 {
		t.Errorf("creatures = %d, want 3", n)
	}
	if _, ok := w.PlantByID(p.ID()); ok {
		t.Error("plant still present after removal request")
	}
}
