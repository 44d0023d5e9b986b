package storage

import (
	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/sequence"
	"github.com/lixenwraith/genegarden/vmath"
)

// VersionedRecord stamps every persisted record with the layout it was written in
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

func current() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// InstanceRecord is a gene instance by identity, fallback name and scratch data
type InstanceRecord struct {
	GeneID   string    `json:"gene_id"`
	GeneName string    `json:"gene_name"`
	Data     gene.Data `json:"data"`
}

// SlotRecord is one runtime slot
type SlotRecord struct {
	Active    *InstanceRecord  `json:"active,omitempty"`
	Modifiers []InstanceRecord `json:"modifiers,omitempty"`
	Payloads  []InstanceRecord `json:"payloads,omitempty"`
}

// StateRecord is a serialized runtime state
type StateRecord struct {
	VersionedRecord
	ID                string           `json:"id"`
	Template          string           `json:"template"`
	Passives          []InstanceRecord `json:"passives,omitempty"`
	Slots             []SlotRecord     `json:"slots"`
	Cursor            int              `json:"cursor"`
	RechargeRemaining int              `json:"recharge_remaining"`
	BaseRechargeTime  int              `json:"base_recharge_time"`
	Cycles            int              `json:"cycles"`
	CycleExecuted     int              `json:"cycle_executed"`
	CycleEnergy       float64          `json:"cycle_energy"`
}

// EntryRecord is a template gene reference
type EntryRecord struct {
	GeneID   string  `json:"gene_id,omitempty"`
	GeneName string  `json:"gene_name,omitempty"`
	Power    float64 `json:"power,omitempty"`
}

// SlotTemplateRecord is one authored slot
type SlotTemplateRecord struct {
	Active    *EntryRecord  `json:"active,omitempty"`
	Modifiers []EntryRecord `json:"modifiers,omitempty"`
	Payloads  []EntryRecord `json:"payloads,omitempty"`
}

// TemplateRecord is a serialized template with gene references instead of definitions
type TemplateRecord struct {
	VersionedRecord
	Name             string               `json:"name"`
	Description      string               `json:"description,omitempty"`
	Passives         []EntryRecord        `json:"passives,omitempty"`
	Slots            []SlotTemplateRecord `json:"slots"`
	BaseRechargeTime int                  `json:"base_recharge_time"`
	EnergyRegenRate  float64              `json:"energy_regen_rate"`
	MaxEnergy        float64              `json:"max_energy"`
}

// PlantRecord is a plant inside a snapshot
type PlantRecord struct {
	ID        string      `json:"id"`
	Position  vmath.Vec2  `json:"position"`
	Energy    float64     `json:"energy"`
	MaxEnergy float64     `json:"max_energy"`
	Regen     float64     `json:"regen"`
	EvalPhase int         `json:"eval_phase,omitempty"`
	State     StateRecord `json:"state"`
}

// CreatureRecord is a creature inside a snapshot
type CreatureRecord struct {
	ID        string     `json:"id"`
	Species   string     `json:"species"`
	Position  vmath.Vec2 `json:"position"`
	Health    float64    `json:"health"`
	MaxHealth float64    `json:"max_health"`
	Hunger    float64    `json:"hunger"`
	Heading   float64    `json:"heading,omitempty"`
}

// Snapshot is a whole-world save point
type Snapshot struct {
	VersionedRecord
	ID        string           `json:"id"`
	Tick      int              `json:"tick"`
	Seed      int64            `json:"seed"`
	RandState []byte           `json:"rand_state,omitempty"`
	Plants    []PlantRecord    `json:"plants"`
	Creatures []CreatureRecord `json:"creatures"`
}

// NewSnapshot returns an empty snapshot stamped with the current versions
func NewSnapshot(id string, tick int, seed int64) Snapshot {
	return Snapshot{VersionedRecord: current(), ID: id, Tick: tick, Seed: seed}
}

func instanceRecord(inst *gene.Instance) InstanceRecord {
	return InstanceRecord{GeneID: inst.GeneID(), GeneName: inst.GeneName(), Data: inst.Data()}
}

func instanceRecords(list []*gene.Instance) []InstanceRecord {
	if len(list) == 0 {
		return nil
	}
	out := make([]InstanceRecord, 0, len(list))
	for _, inst := range list {
		if inst != nil {
			out = append(out, instanceRecord(inst))
		}
	}
	return out
}

func restoreInstances(list []InstanceRecord) []*gene.Instance {
	if len(list) == 0 {
		return nil
	}
	out := make([]*gene.Instance, 0, len(list))
	for _, r := range list {
		out = append(out, gene.Restore(r.GeneID, r.GeneName, r.Data))
	}
	return out
}

// NewStateRecord captures st for persistence
func NewStateRecord(st *sequence.State) StateRecord {
	rec := StateRecord{
		VersionedRecord:   current(),
		ID:                st.ID,
		Template:          st.Template,
		Passives:          instanceRecords(st.Passives),
		Slots:             make([]SlotRecord, 0, len(st.Slots)),
		Cursor:            st.Cursor,
		RechargeRemaining: st.RechargeRemaining,
		BaseRechargeTime:  st.BaseRechargeTime,
		Cycles:            st.Cycles,
		CycleExecuted:     st.CycleExecuted,
		CycleEnergy:       st.CycleEnergy,
	}
	for _, s := range st.Slots {
		var sr SlotRecord
		if s != nil {
			if s.Active != nil {
				a := instanceRecord(s.Active)
				sr.Active = &a
			}
			sr.Modifiers = instanceRecords(s.Modifiers)
			sr.Payloads = instanceRecords(s.Payloads)
		}
		rec.Slots = append(rec.Slots, sr)
	}
	return rec
}

// State rebuilds the runtime state with every instance unbound
func (r StateRecord) State() *sequence.State {
	st := &sequence.State{
		ID:                r.ID,
		Template:          r.Template,
		Passives:          restoreInstances(r.Passives),
		Slots:             make([]*sequence.Slot, 0, len(r.Slots)),
		Cursor:            r.Cursor,
		RechargeRemaining: r.RechargeRemaining,
		BaseRechargeTime:  r.BaseRechargeTime,
		Cycles:            r.Cycles,
		CycleExecuted:     r.CycleExecuted,
		CycleEnergy:       r.CycleEnergy,
	}
	for _, sr := range r.Slots {
		slot := &sequence.Slot{
			Modifiers: restoreInstances(sr.Modifiers),
			Payloads:  restoreInstances(sr.Payloads),
		}
		if sr.Active != nil {
			slot.Active = gene.Restore(sr.Active.GeneID, sr.Active.GeneName, sr.Active.Data)
		}
		st.Slots = append(st.Slots, slot)
	}
	return st
}

func entryRecord(e sequence.Entry) EntryRecord {
	return EntryRecord{GeneID: e.Gene.ID, GeneName: e.Gene.Name, Power: e.Power}
}

func entryRecords(list []sequence.Entry) []EntryRecord {
	var out []EntryRecord
	for _, e := range list {
		if e.Gene != nil {
			out = append(out, entryRecord(e))
		}
	}
	return out
}

// NewTemplateRecord captures tpl with gene references
func NewTemplateRecord(tpl *sequence.Template) TemplateRecord {
	rec := TemplateRecord{
		VersionedRecord:  current(),
		Name:             tpl.Name,
		Description:      tpl.Description,
		Passives:         entryRecords(tpl.Passives),
		Slots:            make([]SlotTemplateRecord, 0, len(tpl.Slots)),
		BaseRechargeTime: tpl.BaseRechargeTime,
		EnergyRegenRate:  tpl.EnergyRegenRate,
		MaxEnergy:        tpl.MaxEnergy,
	}
	for _, s := range tpl.Slots {
		sr := SlotTemplateRecord{Modifiers: entryRecords(s.Modifiers), Payloads: entryRecords(s.Payloads)}
		if s.Active != nil {
			sr.Active = &EntryRecord{GeneID: s.Active.ID, GeneName: s.Active.Name}
		}
		rec.Slots = append(rec.Slots, sr)
	}
	return rec
}

func resolveEntries(list []EntryRecord, r gene.Resolver) []sequence.Entry {
	out := make([]sequence.Entry, 0, len(list))
	for _, e := range list {
		out = append(out, sequence.Entry{Gene: r.Resolve(e.GeneID, e.GeneName), Power: e.Power})
	}
	return out
}

// Template resolves the references against r and validates the result
// Unresolvable references bind the placeholder, which fails validation in any non-passive position
func (r TemplateRecord) Template(res gene.Resolver) (*sequence.Template, error) {
	tpl := &sequence.Template{
		Name:             r.Name,
		Description:      r.Description,
		Passives:         resolveEntries(r.Passives, res),
		BaseRechargeTime: r.BaseRechargeTime,
		EnergyRegenRate:  r.EnergyRegenRate,
		MaxEnergy:        r.MaxEnergy,
	}
	for _, sr := range r.Slots {
		st := sequence.SlotTemplate{
			Modifiers: resolveEntries(sr.Modifiers, res),
			Payloads:  resolveEntries(sr.Payloads, res),
		}
		if sr.Active != nil {
			st.Active = res.Resolve(sr.Active.GeneID, sr.Active.GeneName)
		}
		tpl.Slots = append(tpl.Slots, st)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}
