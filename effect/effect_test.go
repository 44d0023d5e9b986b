package effect

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/tick"
	"github.com/lixenwraith/genegarden/vmath"
)

var quiet = slog.New(slog.DiscardHandler)

type MockCreature struct {
	id      string
	pos     vmath.Vec2
	dying   bool
	damage  float64
	fed     float64
	healed  float64
	applied map[string]int
}

func newCreature(id string, x, y float64) *MockCreature {
	return &MockCreature{id: id, pos: vmath.V2(x, y), applied: map[string]int{}}
}

func (m *MockCreature) ID() string           { return m.id }
func (m *MockCreature) Position() vmath.Vec2 { return m.pos }
func (m *MockCreature) Dying() bool          { return m.dying }
func (m *MockCreature) TakeDamage(a float64) { m.damage += a }
func (m *MockCreature) Feed(a float64)       { m.fed += a }
func (m *MockCreature) Heal(a float64)       { m.healed += a }

type MockFinder struct{ targets []gene.Target }

func (f *MockFinder) FindAllWithinRadius(origin vmath.Vec2, radius float64) []gene.Target {
	var out []gene.Target
	for _, t := range f.targets {
		if vmath.V2Dist(origin, t.Position()) <= radius {
			out = append(out, t)
		}
	}
	return out
}

type mapResolver map[string]*gene.Definition

func (r mapResolver) Resolve(id, name string) *gene.Definition {
	if d, ok := r[id]; ok {
		return d
	}
	return gene.Placeholder()
}

func countingPayload(id string, kind gene.PayloadKind) *gene.Definition {
	return &gene.Definition{
		ID: id, Name: id, Role: gene.RolePayload,
		Payload: &gene.PayloadSpec{
			Kind: kind,
			Apply: func(ctx *gene.PayloadContext) {
				ctx.Target.(*MockCreature).applied[id]++
			},
		},
	}
}

type harness struct {
	clock   *tick.Clock
	bus     *event.Bus
	manager *Manager
	finder  *MockFinder
	expired []event.EffectExpired
	failed  []event.PayloadFailed
}

func newHarness(t *testing.T, r gene.Resolver) *harness {
	t.Helper()
	h := &harness{
		clock:  tick.NewClock(quiet),
		bus:    event.NewBus(quiet),
		finder: &MockFinder{},
	}
	n := 0
	h.manager = NewManager(NewFactory(quiet, StandardPrefabs()...), h.clock,
		Env{Finder: h.finder, Resolver: r, Bus: h.bus, Logger: quiet},
		WithIDs(func() string { n++; return fmt.Sprintf("fx-%d", n) }),
	)
	event.Subscribe(h.bus, func(e event.EffectExpired) { h.expired = append(h.expired, e) })
	event.Subscribe(h.bus, func(e event.PayloadFailed) { h.failed = append(h.failed, e) })
	return h
}

func TestAreaAppliesForDurationThenExpires(t *testing.T) {
	poison := countingPayload("poison", gene.PayloadSubstance)
	slow := countingPayload("slow", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"poison": poison, "slow": slow})
	c := newCreature("c1", 1, 0)
	h.finder.targets = []gene.Target{c}

	id, err := h.manager.SpawnArea(gene.AreaRequest{
		Prefab:   "cloud",
		Payloads: []*gene.Instance{gene.NewInstance(poison), gene.NewInstance(slow)},
		Radius:   2,
		Duration: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	e, _ := h.manager.Get(id)
	area := e.(*Area)

	for i := 1; i <= 3; i++ {
		h.clock.Advance()
		if c.applied["poison"] != i || c.applied["slow"] != i {
			t.Fatalf("tick %d: applied %v", i, c.applied)
		}
	}
	if area.Active() {
		t.Fatal("area still active after duration")
	}
	h.clock.Advance()
	if c.applied["poison"] != 3 {
		t.Errorf("applied after expiry: %v", c.applied)
	}

	h.manager.Frame(DefaultFade / 2)
	if h.manager.Count() != 1 {
		t.Fatal("reaped before fade finished")
	}
	h.manager.Frame(DefaultFade)
	if h.manager.Count() != 0 {
		t.Fatal("not reaped after fade")
	}
	if len(h.expired) != 1 || !h.expired[0].Resolved {
		t.Errorf("expired events = %+v", h.expired)
	}
}

func TestAreaIsolatesFaultingPayload(t *testing.T) {
	bad := &gene.Definition{
		ID: "bad", Name: "bad", Role: gene.RolePayload,
		Payload: &gene.PayloadSpec{Apply: func(*gene.PayloadContext) { panic("broken") }},
	}
	good := countingPayload("good", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"bad": bad, "good": good})
	c := newCreature("c1", 0, 0)
	h.finder.targets = []gene.Target{c}

	_, err := h.manager.SpawnArea(gene.AreaRequest{
		Prefab:   "cloud",
		Payloads: []*gene.Instance{gene.NewInstance(bad), gene.NewInstance(good)},
		Radius:   1,
		Duration: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.clock.Advance()
	if c.applied["good"] != 1 {
		t.Error("good payload skipped after fault")
	}
	if len(h.failed) != 1 || h.failed[0].Gene != "bad" {
		t.Errorf("failures = %+v", h.failed)
	}
}

func TestAreaSkipsDyingAndDistant(t *testing.T) {
	p := countingPayload("p", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"p": p})
	dying := newCreature("d", 0, 0)
	dying.dying = true
	far := newCreature("f", 10, 0)
	h.finder.targets = []gene.Target{dying, far}

	h.manager.SpawnArea(gene.AreaRequest{Prefab: "cloud", Payloads: []*gene.Instance{gene.NewInstance(p)}, Radius: 2, Duration: 2})
	h.clock.AdvanceN(2)
	if dying.applied["p"] != 0 || far.applied["p"] != 0 {
		t.Errorf("applied to excluded creatures: %v %v", dying.applied, far.applied)
	}
}

func TestSpawnUnknownPrefab(t *testing.T) {
	h := newHarness(t, mapResolver{})
	if _, err := h.manager.SpawnArea(gene.AreaRequest{Prefab: "nope"}); !errors.Is(err, ErrUnknownPrefab) {
		t.Errorf("err = %v", err)
	}
	if _, err := h.manager.SpawnArea(gene.AreaRequest{Prefab: "seed"}); !errors.Is(err, ErrPrefabKind) {
		t.Errorf("err = %v", err)
	}
	if h.manager.Count() != 0 {
		t.Error("aborted spawn left an effect")
	}
}

func TestProjectileArrivesAndDamages(t *testing.T) {
	p := countingPayload("p", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"p": p})
	target := newCreature("t", 4, 0)

	id, err := h.manager.SpawnProjectile(gene.ProjectileRequest{
		Prefab: "seed", Target: target, Damage: 5, Speed: 8, Multiplier: 2,
		Payloads: []*gene.Instance{gene.NewInstance(p)},
	})
	if err != nil {
		t.Fatal(err)
	}
	e, _ := h.manager.Get(id)
	proj := e.(*Projectile)

	// 8 units/s for 0.25s covers 2 of 4 units
	h.manager.Frame(250 * time.Millisecond)
	if proj.Position().X != 2 || target.damage != 0 {
		t.Fatalf("after first frame: pos %v damage %v", proj.Position(), target.damage)
	}
	// Remaining 2 units within one more step
	h.manager.Frame(250 * time.Millisecond)
	if target.damage != 10 {
		t.Errorf("damage = %v, want 10", target.damage)
	}
	if target.applied["p"] != 1 {
		t.Error("payload not applied on hit")
	}
	if h.manager.Count() != 0 || len(h.expired) != 1 || !h.expired[0].Resolved {
		t.Errorf("projectile not retired as resolved: %+v", h.expired)
	}
}

func TestProjectileTargetDiesMidFlight(t *testing.T) {
	h := newHarness(t, mapResolver{})
	target := newCreature("t", 10, 0)
	if _, err := h.manager.SpawnProjectile(gene.ProjectileRequest{Prefab: "seed", Target: target, Damage: 5, Speed: 8}); err != nil {
		t.Fatal(err)
	}
	h.manager.Frame(100 * time.Millisecond)
	target.dying = true
	h.manager.Frame(100 * time.Millisecond)

	if target.damage != 0 {
		t.Error("dead target took damage")
	}
	if h.manager.Count() != 0 || h.expired[0].Resolved {
		t.Errorf("expected unresolved removal: %+v", h.expired)
	}
}

func TestProjectileRequiresLiveTarget(t *testing.T) {
	h := newHarness(t, mapResolver{})
	if _, err := h.manager.SpawnProjectile(gene.ProjectileRequest{Prefab: "seed"}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("err = %v", err)
	}
}

func TestFruitGrowsAndIsConsumed(t *testing.T) {
	poison := countingPayload("poison", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"poison": poison})
	id, err := h.manager.SpawnFruit(gene.FruitRequest{
		Prefab:      "fruit",
		GrowthTicks: 2,
		Payloads:    []*gene.Instance{gene.NewInstance(poison)},
		Configure: func(s gene.FruitSink) {
			s.AddNutrition(10, 5)
			s.SetProperty("is_poisonous", 1)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	e, _ := h.manager.Get(id)
	fruit := e.(*Fruit)
	eater := newCreature("e", 0, 0)

	if fruit.Consume(eater) {
		t.Fatal("unripe fruit consumed")
	}
	h.clock.AdvanceN(2)
	if !fruit.Ripe() {
		t.Fatal("fruit not ripe after growth")
	}
	if !fruit.Consume(eater) {
		t.Fatal("ripe fruit refused")
	}
	if eater.fed != 10 || eater.healed != 5 || eater.applied["poison"] != 1 {
		t.Errorf("eater = %+v", eater)
	}
	h.clock.Advance()
	if h.manager.Count() != 0 {
		t.Error("consumed fruit not reaped")
	}
}

func TestFruitLaunchSkipsGrowth(t *testing.T) {
	h := newHarness(t, mapResolver{})
	v := vmath.V2(0, 5)
	id, _ := h.manager.SpawnFruit(gene.FruitRequest{Prefab: "fruit", GrowthTicks: 10, Launch: &v})
	e, _ := h.manager.Get(id)
	fruit := e.(*Fruit)
	if !fruit.Ripe() || !fruit.Launched() {
		t.Fatal("launched fruit must be ripe")
	}
	h.manager.Frame(100 * time.Millisecond)
	if fruit.Position().Y <= 0 {
		t.Errorf("launched fruit did not move: %v", fruit.Position())
	}
}

func TestPoolReuse(t *testing.T) {
	h := newHarness(t, mapResolver{})
	for range 3 {
		h.manager.SpawnArea(gene.AreaRequest{Prefab: "cloud", Duration: 1})
		h.clock.Advance()
		h.manager.Frame(time.Second)
	}
	_, created, reused := h.manager.factory.PoolStats("cloud")
	if created != 1 || reused != 2 {
		t.Errorf("created %d reused %d", created, reused)
	}
}

type tickSpawner struct {
	manager *Manager
	at      map[int]bool
	req     gene.AreaRequest
}

func (s *tickSpawner) OnTick(tick int) {
	if s.at[tick] {
		s.manager.SpawnArea(s.req)
	}
}

func TestRecycledAreaWaitsForNextTick(t *testing.T) {
	p := countingPayload("p", gene.PayloadSubstance)
	h := newHarness(t, mapResolver{"p": p})
	h.manager.factory.Register(Prefab{Name: "puff", Kind: event.KindArea})
	c := newCreature("c1", 0, 0)
	h.finder.targets = []gene.Target{c}
	h.clock.Register(&tickSpawner{
		manager: h.manager,
		at:      map[int]bool{1: true, 5: true},
		req: gene.AreaRequest{
			Prefab: "puff", Radius: 1, Duration: 3, Multiplier: 1,
			Payloads: []*gene.Instance{gene.NewInstance(p)},
		},
	})

	var perTick []int
	last := 0
	for range 9 {
		h.clock.Advance()
		perTick = append(perTick, c.applied["p"]-last)
		last = c.applied["p"]
	}
	want := []int{0, 1, 1, 1, 0, 1, 1, 1, 0}
	for i := range want {
		if perTick[i] != want[i] {
			t.Fatalf("applications per tick = %v, want %v", perTick, want)
		}
	}
	if idle, _, _ := h.manager.factory.PoolStats("puff"); idle != 2 {
		t.Errorf("idle areas = %d, want both returned after their ticks", idle)
	}
}

func TestZeroMultiplierIsKept(t *testing.T) {
	var seen []float64
	recorder := &gene.Definition{
		ID: "m", Name: "m", Role: gene.RolePayload,
		Payload: &gene.PayloadSpec{Apply: func(ctx *gene.PayloadContext) { seen = append(seen, ctx.EffectMultiplier) }},
	}
	h := newHarness(t, mapResolver{"m": recorder})
	c := newCreature("c1", 0, 0)
	h.finder.targets = []gene.Target{c}

	for _, m := range []float64{0, -1} {
		if _, err := h.manager.SpawnArea(gene.AreaRequest{
			Prefab: "cloud", Radius: 1, Duration: 1, Multiplier: m,
			Payloads: []*gene.Instance{gene.NewInstance(recorder)},
		}); err != nil {
			t.Fatal(err)
		}
	}
	h.clock.Advance()
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Errorf("area multipliers = %v, want [0 1]", seen)
	}

	target := newCreature("t", 1, 0)
	if _, err := h.manager.SpawnProjectile(gene.ProjectileRequest{Prefab: "seed", Target: target, Damage: 5, Speed: 100}); err != nil {
		t.Fatal(err)
	}
	h.manager.Frame(time.Second)
	if target.damage != 0 {
		t.Errorf("zero multiplier projectile dealt %v", target.damage)
	}
}
