package status

import (
	"iter"
	"maps"
	"slices"
	"sync"
)

// MetricMap holds named metrics of type T
// Lookups after the first are lock-free; the returned pointer stays valid for the map's lifetime
type MetricMap[T any] struct {
	items sync.Map // string -> *T
	size  int
	mu    sync.Mutex
}

func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{}
}

// Get returns the metric named key, creating a zero value on first use
func (m *MetricMap[T]) Get(key string) *T {
	if v, ok := m.items.Load(key); ok {
		return v.(*T)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, loaded := m.items.LoadOrStore(key, new(T))
	if !loaded {
		m.size++
	}
	return v.(*T)
}

// All yields metrics ordered by name
func (m *MetricMap[T]) All() iter.Seq2[string, *T] {
	snapshot := make(map[string]*T)
	m.items.Range(func(k, v any) bool {
		snapshot[k.(string)] = v.(*T)
		return true
	})
	return func(yield func(string, *T) bool) {
		for _, k := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(k, snapshot[k]) {
				return
			}
		}
	}
}

func (m *MetricMap[T]) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}
