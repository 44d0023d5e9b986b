package sequence

import (
	"log/slog"

	"github.com/lixenwraith/genegarden/gene"
)

// Slot is one runtime position of a sequence
type Slot struct {
	Active    *gene.Instance
	Modifiers []*gene.Instance
	Payloads  []*gene.Instance

	executingUntil int
}

// HasContent reports whether the slot holds an active gene
func (s *Slot) HasContent() bool {
	return s != nil && s.Active != nil
}

// EnergyCost folds the active's base cost through the modifiers, zero when there is no active
func (s *Slot) EnergyCost(r gene.Resolver) float64 {
	if !s.HasContent() {
		return 0
	}
	def, ok := s.Active.As(r, gene.RoleActive)
	if !ok {
		return 0
	}
	return gene.EnergyCost(def.Active, s.Modifiers, r)
}

// Executing reports whether the slot is inside its post-execution cooldown window at tick
func (s *Slot) Executing(tick int) bool {
	return s != nil && tick < s.executingUntil
}

// Clear empties the slot
func (s *Slot) Clear() {
	s.Active = nil
	s.Modifiers = nil
	s.Payloads = nil
	s.executingUntil = 0
}

func (s *Slot) instances() []*gene.Instance {
	out := make([]*gene.Instance, 0, 1+len(s.Modifiers)+len(s.Payloads))
	if s.Active != nil {
		out = append(out, s.Active)
	}
	out = append(out, s.Modifiers...)
	return append(out, s.Payloads...)
}

// State is the mutable per-plant runtime view of a template
type State struct {
	ID                string
	Template          string
	Passives          []*gene.Instance
	Slots             []*Slot
	Cursor            int
	RechargeRemaining int
	BaseRechargeTime  int

	// Cycles counts completed passes through the sequence
	Cycles        int
	CycleExecuted int
	CycleEnergy   float64
}

// Len returns the sequence length
func (st *State) Len() int {
	return len(st.Slots)
}

// Current returns the slot under the cursor, nil for an empty sequence
func (st *State) Current() *Slot {
	if st.Cursor < 0 || st.Cursor >= len(st.Slots) {
		return nil
	}
	return st.Slots[st.Cursor]
}

// Instances returns every gene instance in the state: passives, then slots in order
func (st *State) Instances() []*gene.Instance {
	out := make([]*gene.Instance, 0, len(st.Passives)+len(st.Slots))
	out = append(out, st.Passives...)
	for _, s := range st.Slots {
		if s != nil {
			out = append(out, s.instances()...)
		}
	}
	return out
}

// Reset returns the cursor and counters to the start of a cycle
func (st *State) Reset() {
	st.Cursor = 0
	st.RechargeRemaining = 0
	st.CycleExecuted = 0
	st.CycleEnergy = 0
}

// TotalEnergyCost sums the cost of every slot in the sequence
func (st *State) TotalEnergyCost(r gene.Resolver) float64 {
	total := 0.0
	for _, s := range st.Slots {
		total += s.EnergyCost(r)
	}
	return total
}

// BindReport summarizes a post-load resolution pass
type BindReport struct {
	Resolved  int
	Migrated  int
	Fallbacks []string
}

// Bind resolves every instance against r, migrating stored data that is behind its definition
func (st *State) Bind(r gene.Resolver) BindReport {
	var report BindReport
	for _, inst := range st.Instances() {
		if inst.Rebind(r) {
			report.Migrated++
		}
		if inst.Definition(r).Fallback {
			report.Fallbacks = append(report.Fallbacks, inst.GeneName())
			continue
		}
		report.Resolved++
	}
	if st.Cursor < 0 || st.Cursor >= len(st.Slots) {
		st.Cursor = 0
	}
	return report
}

// EnforceCapacity trims modifier and payload lists that exceed their active's capacities
// Returns the number of instances dropped
func (st *State) EnforceCapacity(r gene.Resolver, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	return st.enforceCapacity(r, logger)
}

// enforceCapacity reads cached definitions when r is nil
func (st *State) enforceCapacity(r gene.Resolver, logger *slog.Logger) int {
	dropped := 0
	for i, s := range st.Slots {
		if !s.HasContent() {
			continue
		}
		if r == nil && !s.Active.Bound() {
			continue
		}
		def, ok := s.Active.As(r, gene.RoleActive)
		if !ok {
			continue
		}
		if n := len(s.Modifiers) - def.Active.ModifierSlots; n > 0 {
			logger.Warn("slot over modifier capacity, clamping",
				"state", st.ID, "slot", i, "gene", def.Name, "capacity", def.Active.ModifierSlots, "dropped", n)
			s.Modifiers = s.Modifiers[:def.Active.ModifierSlots]
			dropped += n
		}
		if n := len(s.Payloads) - def.Active.PayloadSlots; n > 0 {
			logger.Warn("slot over payload capacity, clamping",
				"state", st.ID, "slot", i, "gene", def.Name, "capacity", def.Active.PayloadSlots, "dropped", n)
			s.Payloads = s.Payloads[:def.Active.PayloadSlots]
			dropped += n
		}
	}
	return dropped
}
