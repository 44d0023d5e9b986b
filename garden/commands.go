package garden

import "github.com/lixenwraith/genegarden/event"

// subscribeCommands handles requests posted from other goroutines
// Bus.Post queues them and Step drains the queue on the tick goroutine, under the update lock
func (w *World) subscribeCommands() {
	event.Subscribe(w.Bus, func(req event.CreatureSpawnRequested) {
		if req.Species == "" || req.Count <= 0 {
			w.logger.Warn("creature spawn request ignored", "species", req.Species, "count", req.Count)
			return
		}
		w.Populate(req.Species, req.Count, req.MaxHealth)
		w.logger.Info("creatures spawned on request", "species", req.Species, "count", req.Count)
	})
	event.Subscribe(w.Bus, func(req event.PlantRemovalRequested) {
		if err := w.Remove(req.Plant); err != nil {
			w.logger.Warn("plant removal request failed", "plant", req.Plant, "error", err)
		}
	})
}
