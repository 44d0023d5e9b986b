package effect

import (
	"slices"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

// Projectile travels toward a fixed target at constant speed and resolves on arrival
type Projectile struct {
	id       string
	prefab   string
	source   gene.Host
	pos      vmath.Vec2
	target   gene.Target
	payloads []*gene.Instance

	damage     float64
	speed      float64
	multiplier float64

	resolved bool
	done     bool

	env *Env
}

func (p *Projectile) init(id string, pf Prefab, req gene.ProjectileRequest, env *Env) {
	*p = Projectile{
		id:         id,
		prefab:     pf.Name,
		source:     req.Source,
		pos:        req.Origin,
		target:     req.Target,
		payloads:   slices.Clone(req.Payloads),
		damage:     req.Damage,
		speed:      req.Speed,
		multiplier: req.Multiplier,
		env:        env,
	}
	p.multiplier = requestMultiplier(req.Multiplier)
}

func (p *Projectile) ID() string             { return p.id }
func (p *Projectile) Kind() event.EffectKind { return event.KindProjectile }
func (p *Projectile) Prefab() string         { return p.prefab }
func (p *Projectile) Position() vmath.Vec2   { return p.pos }
func (p *Projectile) Target() gene.Target    { return p.target }
func (p *Projectile) Done() bool             { return p.done }
func (p *Projectile) Resolved() bool         { return p.resolved }

// Frame moves the projectile by speed*dt and hits the target once within step plus tolerance
// A target that died or vanished mid-flight destroys the projectile without effects
func (p *Projectile) Frame(dt time.Duration) {
	if p.done {
		return
	}
	if p.target == nil || p.target.Dying() {
		p.env.logger().Debug("projectile lost target", "effect", p.id)
		p.done = true
		return
	}

	step := p.speed * dt.Seconds()
	next, arrived := vmath.V2MoveToward(p.pos, p.target.Position(), step, ArrivalTolerance)
	p.pos = next
	if arrived {
		p.hit()
	}
}

func (p *Projectile) hit() {
	if p.resolved {
		return
	}
	p.resolved = true
	p.done = true

	if p.target.Dying() {
		return
	}
	final := p.damage * p.multiplier
	if d, ok := p.target.(gene.Damageable); ok && final > 0 {
		d.TakeDamage(final)
	}
	p.env.logger().Debug("projectile hit", "effect", p.id, "target", p.target.ID(), "damage", final)
	p.env.applyPayloads(p.id, p.payloads, p.target, p.source, p.multiplier)
}

func (p *Projectile) destroy() {
	p.done = true
}
