package status

import (
	"sync/atomic"

	"github.com/lixenwraith/genegarden/event"
)

// Metric keys written by Recorder
const (
	KeyEvents          = "events.total"
	KeyTick            = "tick.last"
	KeyExecutions      = "gene.executed"
	KeySucceeded       = "gene.succeeded"
	KeyRejected        = "gene.rejected"
	KeyDelayed         = "gene.delayed"
	KeyCancelled       = "gene.cancelled"
	KeyPassives        = "gene.passives"
	KeyLastGene        = "gene.last"
	KeyCompletions     = "sequence.completed"
	KeyEnergySpent     = "energy.spent"
	KeyEffectsSpawned  = "effects.spawned"
	KeyEffectsLive     = "effects.live"
	KeyPayloadFailures = "payload.failed"
	KeyCreatureDeaths  = "creatures.died"
	KeyRunning         = "engine.running"
)

// Recorder counts bus events into a registry
type Recorder struct {
	bus  *event.Bus
	reg  *Registry
	subs []event.Subscription

	events      *atomic.Int64
	tick        *atomic.Int64
	executions  *atomic.Int64
	succeeded   *atomic.Int64
	rejected    *atomic.Int64
	delayed     *atomic.Int64
	cancelled   *atomic.Int64
	passives    *atomic.Int64
	completions *atomic.Int64
	spawned     *atomic.Int64
	live        *atomic.Int64
	payloads    *atomic.Int64
	deaths      *atomic.Int64
	energy      *AtomicFloat
	lastGene    *AtomicString
}

// NewRecorder subscribes to bus and starts counting into reg
func NewRecorder(bus *event.Bus, reg *Registry) *Recorder {
	r := &Recorder{
		bus:         bus,
		reg:         reg,
		events:      reg.Ints.Get(KeyEvents),
		tick:        reg.Ints.Get(KeyTick),
		executions:  reg.Ints.Get(KeyExecutions),
		succeeded:   reg.Ints.Get(KeySucceeded),
		rejected:    reg.Ints.Get(KeyRejected),
		delayed:     reg.Ints.Get(KeyDelayed),
		cancelled:   reg.Ints.Get(KeyCancelled),
		passives:    reg.Ints.Get(KeyPassives),
		completions: reg.Ints.Get(KeyCompletions),
		spawned:     reg.Ints.Get(KeyEffectsSpawned),
		live:        reg.Ints.Get(KeyEffectsLive),
		payloads:    reg.Ints.Get(KeyPayloadFailures),
		deaths:      reg.Ints.Get(KeyCreatureDeaths),
		energy:      reg.Floats.Get(KeyEnergySpent),
		lastGene:    reg.Strings.Get(KeyLastGene),
	}
	reg.Bools.Get(KeyRunning).Store(true)

	r.subs = append(r.subs,
		bus.SubscribeAll(func(e event.Envelope) {
			r.events.Add(1)
			r.tick.Store(int64(e.Tick))
		}),
		event.Subscribe(bus, func(e event.GeneExecuted) {
			r.executions.Add(1)
			if e.Success {
				r.succeeded.Add(1)
			}
			r.energy.Add(e.EnergyCost)
			r.lastGene.Store(e.GeneName)
		}),
		event.Subscribe(bus, func(event.GeneValidationFailed) { r.rejected.Add(1) }),
		event.Subscribe(bus, func(event.ExecutionDelayed) { r.delayed.Add(1) }),
		event.Subscribe(bus, func(e event.ExecutionCancelled) { r.cancelled.Add(int64(e.Pending)) }),
		event.Subscribe(bus, func(event.PassiveApplied) { r.passives.Add(1) }),
		event.Subscribe(bus, func(event.SequenceCompleted) { r.completions.Add(1) }),
		event.Subscribe(bus, func(e event.EffectSpawned) {
			r.spawned.Add(1)
			r.live.Add(1)
			r.reg.Ints.Get("effects." + string(e.Kind)).Add(1)
		}),
		event.Subscribe(bus, func(event.EffectExpired) { r.live.Add(-1) }),
		event.Subscribe(bus, func(event.PayloadFailed) { r.payloads.Add(1) }),
		event.Subscribe(bus, func(event.CreatureDied) { r.deaths.Add(1) }),
	)
	return r
}

func (r *Recorder) Registry() *Registry { return r.reg }

// Close unsubscribes from the bus and marks the engine stopped
func (r *Recorder) Close() {
	for _, s := range r.subs {
		r.bus.Unsubscribe(s)
	}
	r.subs = nil
	r.reg.Bools.Get(KeyRunning).Store(false)
}
