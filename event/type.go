package event

// Type identifies a gene-engine event
type Type int

const (
	// EventUnknown is assigned to payloads published without registration
	EventUnknown Type = iota

	// === Sequence Events ===

	// EventGeneExecuted reports a completed slot execution
	// Trigger: Executor post-execution step
	// Consumer: UI, analytics, status recorder | Payload: GeneExecuted
	EventGeneExecuted

	// EventSequenceCompleted reports a cursor wrap
	// Trigger: Executor advancing past the last slot
	// Consumer: UI, analytics, status recorder | Payload: SequenceCompleted
	EventSequenceCompleted

	// EventGeneValidationFailed reports a slot that could not run this evaluation
	// Trigger: Executor on insufficient energy, unmet trigger, missing target or unresolved active
	// Consumer: UI, analytics, status recorder | Payload: GeneValidationFailed
	EventGeneValidationFailed

	// EventExecutionDelayed reports a spent slot waiting on its delay timer
	// Trigger: Executor when the active declares a delay
	// Consumer: UI | Payload: ExecutionDelayed
	EventExecutionDelayed

	// EventExecutionCancelled reports a delayed execution dropped by teardown
	// Trigger: Executor.Destroy with pending timers
	// Consumer: analytics | Payload: ExecutionCancelled
	EventExecutionCancelled

	// EventPassiveApplied reports a passive gene applied at planting
	// Trigger: Executor.ApplyPassives
	// Consumer: UI | Payload: PassiveApplied
	EventPassiveApplied

	// === World Effect Events ===

	// EventEffectSpawned reports a new area, projectile or fruit
	// Trigger: effect.Factory
	// Consumer: renderers, audio cues | Payload: EffectSpawned
	EventEffectSpawned Type = iota + 100

	// EventEffectExpired reports an effect leaving the world
	// Trigger: effect.Manager
	// Consumer: renderers, status recorder | Payload: EffectExpired
	EventEffectExpired

	// EventPayloadFailed reports an isolated payload fault
	// Trigger: Area, Projectile, Fruit payload application
	// Consumer: analytics | Payload: PayloadFailed
	EventPayloadFailed

	// === Creature Events ===

	// EventCreatureDied reports a creature reaching zero health
	// Trigger: garden.Creature damage handling
	// Consumer: UI, status recorder | Payload: CreatureDied
	EventCreatureDied Type = iota + 200

	// === Command Events ===

	// EventCreatureSpawnRequested asks the world to scatter new creatures
	// Trigger: sandbox input, server HTTP handlers via Bus.Post
	// Consumer: garden.World | Payload: CreatureSpawnRequested
	EventCreatureSpawnRequested Type = iota + 300

	// EventPlantRemovalRequested asks the world to destroy a plant
	// Trigger: server HTTP handlers via Bus.Post
	// Consumer: garden.World | Payload: PlantRemovalRequested
	EventPlantRemovalRequested
)
