package event

import "github.com/lixenwraith/genegarden/vmath"

// GeneExecuted carries a completed slot execution
type GeneExecuted struct {
	Plant      string  `json:"plant"`
	GeneID     string  `json:"gene_id"`
	GeneName   string  `json:"gene_name"`
	Position   int     `json:"position"`
	Success    bool    `json:"success"`
	EnergyCost float64 `json:"energy_cost"`
	Tick       int     `json:"tick"`
}

// SequenceCompleted carries a cursor wrap
type SequenceCompleted struct {
	Plant           string  `json:"plant"`
	SlotsExecuted   int     `json:"slots_executed"`
	TotalEnergyUsed float64 `json:"total_energy_used"`
}

// GeneValidationFailed carries a blocked or skipped slot and a readable reason
type GeneValidationFailed struct {
	Plant    string `json:"plant"`
	GeneID   string `json:"gene_id"`
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// ExecutionDelayed carries a spent slot scheduled for a later tick
type ExecutionDelayed struct {
	Plant   string `json:"plant"`
	GeneID  string `json:"gene_id"`
	DueTick int    `json:"due_tick"`
}

// ExecutionCancelled carries delayed executions dropped on teardown
type ExecutionCancelled struct {
	Plant   string `json:"plant"`
	Pending int    `json:"pending"`
}

// PassiveApplied carries a passive gene applied at planting
type PassiveApplied struct {
	Plant    string  `json:"plant"`
	GeneID   string  `json:"gene_id"`
	GeneName string  `json:"gene_name"`
	Power    float64 `json:"power"`
}

// EffectKind names the world effect variety
type EffectKind string

const (
	KindArea       EffectKind = "area"
	KindProjectile EffectKind = "projectile"
	KindFruit      EffectKind = "fruit"
)

// EffectSpawned carries a new world effect
type EffectSpawned struct {
	EffectID string     `json:"effect_id"`
	Kind     EffectKind `json:"kind"`
	Prefab   string     `json:"prefab"`
	Source   string     `json:"source"`
	Position vmath.Vec2 `json:"position"`
	Radius   float64    `json:"radius,omitempty"`
	Payloads int        `json:"payloads"`
}

// EffectExpired carries an effect leaving the world
type EffectExpired struct {
	EffectID string     `json:"effect_id"`
	Kind     EffectKind `json:"kind"`
	Resolved bool       `json:"resolved"`
}

// PayloadFailed carries an isolated payload application fault
type PayloadFailed struct {
	EffectID string `json:"effect_id"`
	Gene     string `json:"gene"`
	Target   string `json:"target"`
	Error    string `json:"error"`
}

// CreatureDied carries a creature reaching zero health
type CreatureDied struct {
	Creature string     `json:"creature"`
	Species  string     `json:"species"`
	Position vmath.Vec2 `json:"position"`
}

// CreatureSpawnRequested scatters Count creatures of Species at random positions
// Zero MaxHealth uses the species default
type CreatureSpawnRequested struct {
	Species   string  `json:"species"`
	Count     int     `json:"count"`
	MaxHealth float64 `json:"max_health,omitempty"`
}

// PlantRemovalRequested destroys a plant and cancels its delayed executions
type PlantRemovalRequested struct {
	Plant string `json:"plant"`
}
