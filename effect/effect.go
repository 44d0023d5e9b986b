// Package effect implements the world-space effects spawned by active genes
//
// Areas tick on the world clock and apply payloads to every creature inside their radius.
// Projectiles and fruit motion advance on frame time. The Manager owns every live effect and
// reaps those that finished.
package effect

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

var (
	ErrUnknownPrefab = errors.New("unknown effect prefab")
	ErrPrefabKind    = errors.New("prefab kind does not match request")
	ErrNoTarget      = errors.New("projectile has no live target")
)

// ArrivalTolerance extends the per-frame step when testing projectile arrival
const ArrivalTolerance = 0.1

// DefaultFade is the fade-out of an expired area when its prefab sets none
const DefaultFade = 300 * time.Millisecond

// requestMultiplier keeps zero as a real multiplier and treats negative or NaN as unset
func requestMultiplier(m float64) float64 {
	if m < 0 || math.IsNaN(m) {
		return 1
	}
	return m
}

// Effect is a live world effect
type Effect interface {
	ID() string
	Kind() event.EffectKind
	Prefab() string
	Position() vmath.Vec2
	// Done reports the effect finished and can be reaped
	Done() bool
	// Resolved reports the effect delivered its outcome before finishing
	Resolved() bool
}

// Finder is the spatial query effects run against
type Finder interface {
	FindAllWithinRadius(origin vmath.Vec2, radius float64) []gene.Target
}

// Env holds the collaborators shared by every effect of a manager
type Env struct {
	Finder   Finder
	Resolver gene.Resolver
	Bus      *event.Bus
	Logger   *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// applyPayloads applies each payload to target, isolating and reporting faults per payload
// Returns the number of successful applications
func (e *Env) applyPayloads(effectID string, payloads []*gene.Instance, target gene.Target, source gene.Host, multiplier float64) int {
	applied := 0
	for _, inst := range payloads {
		if inst == nil {
			continue
		}
		err := gene.ApplyPayload(e.Resolver, inst, target, source, multiplier, e.logger())
		if err == nil {
			applied++
			continue
		}
		if errors.Is(err, gene.ErrNotPayload) {
			continue
		}
		e.logger().Error("payload application failed",
			"effect", effectID, "gene", inst.GeneName(), "target", target.ID(), "error", err)
		if e.Bus != nil {
			event.Publish(e.Bus, event.PayloadFailed{
				EffectID: effectID,
				Gene:     inst.GeneName(),
				Target:   target.ID(),
				Error:    err.Error(),
			})
		}
	}
	return applied
}

// Prefab names an effect template
type Prefab struct {
	Name  string
	Kind  event.EffectKind
	Color string
	// Fade is the frame-time fade after an area expires
	Fade time.Duration
	// Friction slows launched fruit, fraction of speed lost per second
	Friction float64
}

func hostID(h gene.Host) string {
	if h == nil {
		return ""
	}
	return h.ID()
}
