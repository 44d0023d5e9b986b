// Package status keeps lock-free engine metrics fed from bus events
package status

import "sync/atomic"

// Registry is the metrics facade
// Recorders cache metric pointers once at startup; readers take a Snapshot
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of metrics across all maps
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot copies every current value into a plain map
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.TotalCount())
	for k, v := range r.Bools.All() {
		out[k] = v.Load()
	}
	for k, v := range r.Ints.All() {
		out[k] = v.Load()
	}
	for k, v := range r.Floats.All() {
		out[k] = v.Get()
	}
	for k, v := range r.Strings.All() {
		out[k] = v.Load()
	}
	return out
}
