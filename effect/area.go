package effect

import (
	"slices"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

// Area applies its payload snapshot to every creature in radius on each active tick
type Area struct {
	id       string
	prefab   string
	source   gene.Host
	origin   vmath.Vec2
	payloads []*gene.Instance

	radius     float64
	duration   int
	multiplier float64

	currentTick int
	active      bool
	fade        time.Duration
	fadeLeft    time.Duration
	done        bool
	applied     int

	env *Env
}

func (a *Area) init(id string, p Prefab, req gene.AreaRequest, env *Env) {
	*a = Area{
		id:         id,
		prefab:     p.Name,
		source:     req.Source,
		origin:     req.Origin,
		payloads:   slices.Clone(req.Payloads),
		radius:     req.Radius,
		duration:   req.Duration,
		multiplier: req.Multiplier,
		active:     true,
		fade:       p.Fade,
		env:        env,
	}
	a.multiplier = requestMultiplier(req.Multiplier)
}

func (a *Area) ID() string                 { return a.id }
func (a *Area) Kind() event.EffectKind     { return event.KindArea }
func (a *Area) Prefab() string             { return a.prefab }
func (a *Area) Position() vmath.Vec2       { return a.origin }
func (a *Area) Radius() float64            { return a.radius }
func (a *Area) Duration() int              { return a.duration }
func (a *Area) Multiplier() float64        { return a.multiplier }
func (a *Area) Active() bool               { return a.active }
func (a *Area) Elapsed() int               { return a.currentTick }
func (a *Area) Payloads() []*gene.Instance { return a.payloads }
func (a *Area) Done() bool                 { return a.done }

// Resolved is true once the area ran its full duration
func (a *Area) Resolved() bool { return !a.active && a.currentTick >= a.duration }

// Applications returns the successful payload applications so far
func (a *Area) Applications() int { return a.applied }

// Alpha returns the fade-out opacity, 1 while active
func (a *Area) Alpha() float64 {
	if a.active {
		return 1
	}
	if a.fade <= 0 {
		return 0
	}
	return float64(a.fadeLeft) / float64(a.fade)
}

// OnTick applies payloads to every living creature in radius and expires at the duration
func (a *Area) OnTick(int) {
	if !a.active {
		return
	}
	a.currentTick++

	if len(a.payloads) > 0 && a.env.Finder != nil {
		for _, target := range a.env.Finder.FindAllWithinRadius(a.origin, a.radius) {
			if target == nil || target.Dying() {
				continue
			}
			a.applied += a.env.applyPayloads(a.id, a.payloads, target, a.source, a.multiplier)
		}
	}

	if a.currentTick >= a.duration {
		a.active = false
		a.fadeLeft = a.fade
		if a.fadeLeft <= 0 {
			a.done = true
		}
		a.env.logger().Debug("area expired", "effect", a.id, "ticks", a.currentTick, "applied", a.applied)
	}
}

// Frame advances the fade of an expired area
func (a *Area) Frame(dt time.Duration) {
	if a.active || a.done {
		return
	}
	a.fadeLeft -= dt
	if a.fadeLeft <= 0 {
		a.fadeLeft = 0
		a.done = true
	}
}

func (a *Area) destroy() {
	a.active = false
	a.done = true
}
