package garden

import (
	"context"
	"encoding"
	"fmt"

	"github.com/lixenwraith/genegarden/energy"
	"github.com/lixenwraith/genegarden/storage"
)

// streamState is implemented by sources that can save their position
type streamState interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Snapshot captures plants, creatures and the random stream at the current tick
// Live effects and pending delayed executions are not captured
func (w *World) Snapshot(id string) storage.Snapshot {
	snap := storage.NewSnapshot(id, w.Clock.Current(), w.Random.Seed())
	if s, ok := w.Random.(streamState); ok {
		if data, err := s.MarshalBinary(); err == nil {
			snap.RandState = data
		} else {
			w.logger.Warn("random stream not saved", "error", err)
		}
	}
	for _, p := range w.Plants() {
		snap.Plants = append(snap.Plants, storage.PlantRecord{
			ID:        p.id,
			Position:  p.pos,
			Energy:    p.Energy.Current(),
			MaxEnergy: p.Energy.Max(),
			Regen:     p.Energy.BaseRegen(),
			EvalPhase: p.Executor.Elapsed(),
			State:     storage.NewStateRecord(p.State()),
		})
	}
	for _, c := range w.Creatures() {
		if c.Dying() {
			continue
		}
		c.mu.RLock()
		snap.Creatures = append(snap.Creatures, storage.CreatureRecord{
			ID:        c.id,
			Species:   c.species,
			Position:  c.pos,
			Health:    c.health,
			MaxHealth: c.maxHealth,
			Hunger:    c.hunger,
			Heading:   c.heading,
		})
		c.mu.RUnlock()
	}
	return snap
}

// Restore replaces the world contents with snap
// Plant states go through the bind pass so renamed or upgraded genes migrate on load
func (w *World) Restore(snap storage.Snapshot) error {
	w.clear()
	w.Clock.Restore(snap.Tick)
	w.Random.SetSeed(snap.Seed)

	for _, rec := range snap.Plants {
		st, report := storage.BindState(rec.State, w.Library, w.logger)
		pool := energy.NewPool(rec.Energy, rec.MaxEnergy, rec.Regen)
		p, err := w.attach(rec.ID, rec.Position, st, pool)
		if err != nil {
			return fmt.Errorf("restore plant: %w", err)
		}
		p.Executor.SetElapsed(rec.EvalPhase)
		if report.Migrated > 0 || len(report.Fallbacks) > 0 {
			w.logger.Info("plant restored with repairs", "plant", rec.ID, "migrated", report.Migrated, "missing", len(report.Fallbacks))
		}
	}
	for _, rec := range snap.Creatures {
		c, err := w.SpawnCreature(rec.ID, rec.Species, rec.Position, rec.MaxHealth)
		if err != nil {
			return fmt.Errorf("restore creature: %w", err)
		}
		c.mu.Lock()
		c.health = min(rec.Health, c.maxHealth)
		c.hunger = rec.Hunger
		c.heading = rec.Heading
		c.dying = c.health <= 0
		c.mu.Unlock()
	}
	if s, ok := w.Random.(streamState); ok && len(snap.RandState) > 0 {
		if err := s.UnmarshalBinary(snap.RandState); err != nil {
			return fmt.Errorf("restore random stream: %w", err)
		}
	}
	w.logger.Info("world restored", "snapshot", snap.ID, "tick", snap.Tick, "plants", len(snap.Plants), "creatures", len(snap.Creatures))
	return nil
}

// clear removes every plant, creature and live effect
func (w *World) clear() {
	for _, p := range w.Plants() {
		_ = w.Remove(p.id)
	}
	w.mu.Lock()
	clear(w.creatures)
	w.creatureOrder = nil
	w.mu.Unlock()
	w.Effects.Clear()
}

// Save writes a snapshot of the world to store
func (w *World) Save(ctx context.Context, store storage.Store, id string) error {
	if err := store.SaveSnapshot(ctx, w.Snapshot(id)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return nil
}

// Load restores the world from a stored snapshot
func (w *World) Load(ctx context.Context, store storage.Store, id string) error {
	snap, ok, err := store.GetSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("load snapshot %s: %w", id, storage.ErrNotFound)
	}
	return w.Restore(snap)
}
