package sequence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/genegarden/core"
	"github.com/lixenwraith/genegarden/event"
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/rng"
	"github.com/lixenwraith/genegarden/tick"
)

// Executor defaults
const (
	DefaultInterval = 1
	DefaultCooldown = 1
)

var ErrExecutePanicked = errors.New("active gene execution panicked")

// EnergySystem is the host-owned energy pool the executor draws from
type EnergySystem interface {
	Current() float64
	Max() float64
	HasEnergy(amount float64) bool
	Spend(amount float64)
}

// Deps are the executor collaborators, all provided by the host
type Deps struct {
	Host     gene.Host
	Energy   EnergySystem
	Bus      *event.Bus
	Random   rng.Source
	Resolver gene.Resolver
	World    gene.World
	Timers   *tick.Timers
	Logger   *slog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithInterval evaluates once every n world ticks
func WithInterval(n int) Option {
	return func(e *Executor) { e.interval = max(n, 1) }
}

// WithCooldown sets how many ticks a slot stays flagged as executing
func WithCooldown(n int) Option {
	return func(e *Executor) { e.cooldown = max(n, 0) }
}

// Executor walks one runtime state, one slot per evaluation
// Not safe for concurrent use; runs on the tick goroutine
type Executor struct {
	state    *State
	deps     Deps
	interval int
	cooldown int

	phase       Phase
	paused      bool
	dead        bool
	pending     int
	ticks       int
	evaluations int
}

// NewExecutor creates an executor over state
func NewExecutor(state *State, deps Deps, opts ...Option) *Executor {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	e := &Executor{
		state:    state,
		deps:     deps,
		interval: DefaultInterval,
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the runtime state
func (e *Executor) State() *State { return e.state }

// Phase returns the current state machine position
func (e *Executor) Phase() Phase { return e.phase }

// Pending returns the number of delayed executions in flight
func (e *Executor) Pending() int { return e.pending }

// Evaluations returns how many evaluations ran
func (e *Executor) Evaluations() int { return e.evaluations }

// Elapsed returns the ticks counted since the last evaluation boundary
func (e *Executor) Elapsed() int { return e.ticks % e.interval }

// SetElapsed resumes interval counting n ticks past a boundary
func (e *Executor) SetElapsed(n int) {
	e.ticks = (n%e.interval + e.interval) % e.interval
}

// Pause stops evaluations; delayed executions already scheduled still fire
func (e *Executor) Pause() { e.paused = true }

// Resume restarts evaluations
func (e *Executor) Resume() { e.paused = false }

// Paused reports whether evaluations are stopped
func (e *Executor) Paused() bool { return e.paused }

// Alive reports whether the executor has not been destroyed
func (e *Executor) Alive() bool { return !e.dead }

func (e *Executor) owner() string {
	if e.deps.Host != nil {
		return e.deps.Host.ID()
	}
	if e.state != nil {
		return e.state.ID
	}
	return ""
}

// OnTick evaluates once every interval world ticks
func (e *Executor) OnTick(tick int) {
	if e.dead || e.paused {
		return
	}
	e.ticks++
	if e.ticks%e.interval != 0 {
		return
	}
	e.Evaluate(tick)
}

// Evaluate runs one evaluation at tick
func (e *Executor) Evaluate(tick int) Outcome {
	st := e.state
	if e.dead || st == nil || len(st.Slots) == 0 || e.deps.Energy == nil {
		return OutcomeInactive
	}
	if e.pending > 0 {
		return OutcomeWaiting
	}
	e.evaluations++

	if st.RechargeRemaining > 0 {
		st.RechargeRemaining--
		e.phase = PhaseRecharging
		if st.RechargeRemaining == 0 {
			e.phase = PhaseIdle
		}
		return OutcomeRecharging
	}

	e.phase = PhaseEvaluatingSlot
	slot := st.Current()
	if !slot.HasContent() {
		e.advance()
		return OutcomeSkipped
	}

	def, ok := slot.Active.As(e.deps.Resolver, gene.RoleActive)
	if !ok || def.Active.Execute == nil {
		e.deps.Logger.Error("active gene did not resolve, skipping slot",
			"plant", e.owner(), "position", st.Cursor, "id", slot.Active.GeneID(), "name", slot.Active.GeneName())
		e.rejected(slot.Active.GeneID(), "Active gene could not be resolved.")
		e.advance()
		return OutcomeFailed
	}

	ctx := e.context(slot, tick)

	e.phase = PhaseTriggerCheck
	if reason, ok := e.checkTriggers(ctx, def); !ok {
		e.rejected(def.ID, reason)
		e.phase = PhaseIdle
		return OutcomeBlocked
	}

	e.phase = PhaseSpendingEnergy
	cost := slot.EnergyCost(e.deps.Resolver)
	if !e.deps.Energy.HasEnergy(cost) {
		e.rejected(def.ID, fmt.Sprintf("Insufficient energy. Has %g, needs %g.", e.deps.Energy.Current(), cost))
		e.phase = PhaseIdle
		return OutcomeBlocked
	}

	e.phase = PhasePreExecution
	slot.Active.SetValue(gene.KeyEffectMultiplier, slot.Active.GetValue(gene.KeyPowerMultiplier, 1))
	e.runHooks(ctx, true)

	e.deps.Energy.Spend(cost)
	st.CycleEnergy += cost

	if delay := def.Active.Delay; delay > 0 {
		if e.deps.Timers == nil {
			e.deps.Logger.Warn("no timer queue, executing delayed gene immediately", "gene", def.Name, "delay", delay)
		} else {
			e.schedule(slot, ctx, def, cost, tick+delay)
			return OutcomeDelayed
		}
	}

	e.execute(ctx, def)
	e.finish(slot, ctx, def, cost, tick)
	return OutcomeExecuted
}

func (e *Executor) context(slot *Slot, tick int) *gene.ActiveContext {
	return &gene.ActiveContext{
		Host:      e.deps.Host,
		Active:    slot.Active,
		Modifiers: slot.Modifiers,
		Payloads:  slot.Payloads,
		Position:  e.state.Cursor,
		Tick:      tick,
		Random:    e.deps.Random,
		World:     e.deps.World,
		Resolver:  e.deps.Resolver,
		Logger:    e.deps.Logger,
	}
}

// checkTriggers runs every trigger modifier and the active's target requirement before any spend
func (e *Executor) checkTriggers(ctx *gene.ActiveContext, def *gene.Definition) (string, bool) {
	for _, inst := range ctx.Modifiers {
		mod, ok := inst.As(e.deps.Resolver, gene.RoleModifier)
		if !ok || mod.Modifier.Kind != gene.ModifierTrigger || mod.Modifier.Trigger == nil {
			continue
		}
		met := false
		core.Safely(e.deps.Logger, "trigger check panicked", func() {
			met = mod.Modifier.Trigger(ctx, inst)
		}, "gene", mod.Name)
		if !met {
			return fmt.Sprintf("Trigger condition not met: %s.", mod.Name), false
		}
	}

	if def.Active.RequiresTarget {
		if e.deps.World == nil || e.deps.Host == nil {
			return "No world to search for a target.", false
		}
		if _, ok := e.deps.World.FindNearest(e.deps.Host.Position(), def.Active.TargetRange); !ok {
			return fmt.Sprintf("No target within %g.", def.Active.TargetRange), false
		}
	}
	return "", true
}

func (e *Executor) runHooks(ctx *gene.ActiveContext, pre bool) {
	for _, inst := range ctx.Modifiers {
		mod, ok := inst.As(e.deps.Resolver, gene.RoleModifier)
		if !ok {
			continue
		}
		hook, label := mod.Modifier.Post, "modifier post hook panicked"
		if pre {
			hook, label = mod.Modifier.Pre, "modifier pre hook panicked"
		}
		if hook == nil {
			continue
		}
		core.Safely(e.deps.Logger, label, func() { hook(ctx, inst) }, "gene", mod.Name)
	}
}

func (e *Executor) execute(ctx *gene.ActiveContext, def *gene.Definition) {
	e.phase = PhaseExecuting
	if !core.Safely(e.deps.Logger, "active gene execute panicked", func() { def.Active.Execute(ctx) }, "gene", def.Name) {
		ctx.Fail(fmt.Errorf("%w: %s", ErrExecutePanicked, def.Name))
	}
}

func (e *Executor) schedule(slot *Slot, ctx *gene.ActiveContext, def *gene.Definition, cost float64, due int) {
	e.phase = PhaseDelayedExecuting
	e.pending++
	e.deps.Timers.Schedule(e.owner(), due, e.Alive, func() {
		e.pending--
		e.execute(ctx, def)
		e.finish(slot, ctx, def, cost, due)
	})
	e.deps.Logger.Debug("gene execution delayed", "plant", e.owner(), "gene", def.Name, "due", due)
	if e.deps.Bus != nil {
		event.Publish(e.deps.Bus, event.ExecutionDelayed{Plant: e.owner(), GeneID: def.ID, DueTick: due})
	}
}

func (e *Executor) finish(slot *Slot, ctx *gene.ActiveContext, def *gene.Definition, cost float64, tick int) {
	e.phase = PhasePostExecution
	e.runHooks(ctx, false)

	success := ctx.Err == nil
	e.deps.Logger.Debug("gene executed",
		"plant", e.owner(), "gene", def.Name, "position", ctx.Position, "cost", cost, "success", success, "tick", tick)
	if e.deps.Bus != nil {
		event.Publish(e.deps.Bus, event.GeneExecuted{
			Plant:      e.owner(),
			GeneID:     def.ID,
			GeneName:   def.Name,
			Position:   ctx.Position,
			Success:    success,
			EnergyCost: cost,
			Tick:       tick,
		})
	}
	slot.executingUntil = tick + e.cooldown
	e.state.CycleExecuted++
	e.advance()
}

func (e *Executor) rejected(geneID, reason string) {
	e.deps.Logger.Debug("gene validation failed", "plant", e.owner(), "gene", geneID, "reason", reason)
	if e.deps.Bus != nil {
		event.Publish(e.deps.Bus, event.GeneValidationFailed{
			Plant:    e.owner(),
			GeneID:   geneID,
			Position: e.state.Cursor,
			Reason:   reason,
		})
	}
}

func (e *Executor) advance() {
	e.phase = PhaseAdvancing
	st := e.state
	st.Cursor++
	if st.Cursor < len(st.Slots) {
		e.phase = PhaseIdle
		return
	}

	st.Cursor = 0
	if e.deps.Bus != nil {
		event.Publish(e.deps.Bus, event.SequenceCompleted{
			Plant:           e.owner(),
			SlotsExecuted:   st.CycleExecuted,
			TotalEnergyUsed: st.CycleEnergy,
		})
	}
	e.deps.Logger.Debug("sequence completed",
		"plant", e.owner(), "executed", st.CycleExecuted, "energy", st.CycleEnergy, "cycle", st.Cycles+1)
	st.Cycles++
	st.CycleExecuted = 0
	st.CycleEnergy = 0
	st.RechargeRemaining = st.BaseRechargeTime

	e.phase = PhaseIdle
	if st.RechargeRemaining > 0 {
		e.phase = PhaseRecharging
	}
}

// ApplyPassives applies every passive whose requirements hold and returns how many applied
func (e *Executor) ApplyPassives(stats gene.Stats) int {
	if e.state == nil {
		return 0
	}
	applied := 0
	for _, inst := range e.state.Passives {
		def, ok := inst.As(e.deps.Resolver, gene.RolePassive)
		if !ok || def.Fallback {
			continue
		}
		ctx := &gene.PassiveContext{Host: e.deps.Host, Stats: stats, Instance: inst, Passive: def}
		if req := def.Passive.Requirements; req != nil && !req(ctx) {
			continue
		}

		done := true
		if def.Passive.Apply != nil {
			done = core.Safely(e.deps.Logger, "passive gene apply panicked", func() { def.Passive.Apply(ctx) }, "gene", def.Name)
		} else if stats != nil {
			p := def.Passive
			done = stats.ApplyStat(def.ID, p.Stat, p.Factor(inst), p.StacksAdditively, p.MaxStacks)
		}
		if !done {
			continue
		}

		applied++
		e.deps.Logger.Info("passive gene applied", "plant", e.owner(), "gene", def.Name)
		if e.deps.Bus != nil {
			event.Publish(e.deps.Bus, event.PassiveApplied{
				Plant:    e.owner(),
				GeneID:   def.ID,
				GeneName: def.Name,
				Power:    inst.GetValue(gene.KeyPowerMultiplier, 1),
			})
		}
	}
	return applied
}

// Destroy stops the executor and cancels its delayed executions without refunding energy
func (e *Executor) Destroy() {
	if e.dead {
		return
	}
	e.dead = true
	e.phase = PhaseIdle
	if e.deps.Timers == nil {
		return
	}
	if n := e.deps.Timers.CancelOwner(e.owner()); n > 0 {
		e.deps.Logger.Info("delayed executions cancelled", "plant", e.owner(), "pending", n)
		if e.deps.Bus != nil {
			event.Publish(e.deps.Bus, event.ExecutionCancelled{Plant: e.owner(), Pending: n})
		}
	}
	e.pending = 0
}
