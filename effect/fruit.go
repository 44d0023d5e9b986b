package effect

import (
	"maps"
	"slices"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

// minFruitSpeed stops a launched fruit once it slows below this
const minFruitSpeed = 0.05

// Fruit grows on a plant or is launched, carrying nutrition and payload properties for whoever eats it
type Fruit struct {
	id       string
	prefab   string
	source   gene.Host
	pos      vmath.Vec2
	payloads []*gene.Instance

	growthTicks int
	age         int
	velocity    vmath.Vec2
	friction    float64
	launched    bool

	nutrition  float64
	heal       float64
	tints      []string
	properties map[string]float64

	consumed bool
	done     bool

	env *Env
}

func (f *Fruit) init(id string, p Prefab, req gene.FruitRequest, env *Env) {
	*f = Fruit{
		id:          id,
		prefab:      p.Name,
		source:      req.Source,
		pos:         req.Origin,
		payloads:    slices.Clone(req.Payloads),
		growthTicks: req.GrowthTicks,
		friction:    p.Friction,
		properties:  make(map[string]float64),
		env:         env,
	}
	if p.Color != "" {
		f.tints = append(f.tints, p.Color)
	}
	if req.Configure != nil {
		req.Configure(f)
	}
	if req.Launch != nil {
		f.launched = true
		f.velocity = *req.Launch
		f.age = f.growthTicks
	}
}

func (f *Fruit) ID() string             { return f.id }
func (f *Fruit) Kind() event.EffectKind { return event.KindFruit }
func (f *Fruit) Prefab() string         { return f.prefab }
func (f *Fruit) Position() vmath.Vec2   { return f.pos }
func (f *Fruit) Velocity() vmath.Vec2   { return f.velocity }
func (f *Fruit) Launched() bool         { return f.launched }
func (f *Fruit) Nutrition() float64     { return f.nutrition }
func (f *Fruit) HealAmount() float64    { return f.heal }
func (f *Fruit) Done() bool             { return f.done }
func (f *Fruit) Resolved() bool         { return f.consumed }

// Ripe reports whether the fruit finished growing
func (f *Fruit) Ripe() bool { return f.age >= f.growthTicks }

// Property returns a payload-set property
func (f *Fruit) Property(key string) (float64, bool) {
	v, ok := f.properties[key]
	return v, ok
}

// Properties returns a copy of the payload-set properties
func (f *Fruit) Properties() map[string]float64 {
	return maps.Clone(f.properties)
}

// Tints returns the colors layered onto the fruit, oldest first
func (f *Fruit) Tints() []string { return slices.Clone(f.tints) }

// SetProperty implements gene.FruitSink
func (f *Fruit) SetProperty(key string, value float64) {
	f.properties[key] = value
}

// AddNutrition implements gene.FruitSink
func (f *Fruit) AddNutrition(nutrition, heal float64) {
	f.nutrition += nutrition
	f.heal += heal
}

// Tint implements gene.FruitSink
func (f *Fruit) Tint(color string) {
	if color != "" {
		f.tints = append(f.tints, color)
	}
}

// OnTick grows the fruit by one tick
func (f *Fruit) OnTick(int) {
	if f.done || f.Ripe() {
		return
	}
	f.age++
}

// Frame moves a launched fruit and bleeds speed by friction
func (f *Fruit) Frame(dt time.Duration) {
	if f.done || !f.launched {
		return
	}
	secs := dt.Seconds()
	f.pos = vmath.V2Add(f.pos, vmath.V2Scale(f.velocity, secs))
	if f.friction > 0 {
		keep := 1 - f.friction*secs
		if keep < 0 {
			keep = 0
		}
		f.velocity = vmath.V2Scale(f.velocity, keep)
	}
	if vmath.V2Mag(f.velocity) < minFruitSpeed {
		f.velocity = vmath.Vec2{}
	}
}

// Consume feeds the eater the stored nutrition and applies substance payloads to it
// Returns false when the fruit is unripe or already eaten
func (f *Fruit) Consume(eater gene.Target) bool {
	if f.done || f.consumed || !f.Ripe() || eater == nil || eater.Dying() {
		return false
	}
	f.consumed = true
	f.done = true

	if feeder, ok := eater.(gene.Feeder); ok {
		if f.nutrition > 0 {
			feeder.Feed(f.nutrition)
		}
		if f.heal > 0 {
			feeder.Heal(f.heal)
		}
	}

	var substances []*gene.Instance
	for _, inst := range f.payloads {
		def, ok := inst.As(f.env.Resolver, gene.RolePayload)
		if ok && def.Payload.Kind == gene.PayloadSubstance {
			substances = append(substances, inst)
		}
	}
	f.env.applyPayloads(f.id, substances, eater, f.source, 1)
	f.env.logger().Debug("fruit consumed", "effect", f.id, "eater", eater.ID(), "nutrition", f.nutrition)
	return true
}

func (f *Fruit) destroy() {
	f.done = true
}
