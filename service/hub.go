package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

var (
	ErrDuplicate          = errors.New("service already registered")
	ErrUnknownDependency  = errors.New("service depends on unregistered service")
	ErrCircularDependency = errors.New("circular dependency detected in services")
)

// Hub runs service lifecycles in dependency order
// Init and Start walk dependencies first; Stop walks the reverse of what actually started
type Hub struct {
	mu       sync.Mutex
	services map[string]Service
	order    []string
	inited   []string
	started  []string
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{services: make(map[string]Service), logger: logger}
}

// Register adds svc; names are unique
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	name := svc.Name()
	if _, ok := h.services[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	h.services[name] = svc
	h.order = nil
	return nil
}

func (h *Hub) Get(name string) (Service, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	svc, ok := h.services[name]
	return svc, ok
}

// Names returns registered names sorted
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Sorted(maps.Keys(h.services))
}

// Order returns the dependency order Init and Start use
func (h *Hub) Order() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.resolve(); err != nil {
		return nil, err
	}
	return slices.Clone(h.order), nil
}

// InitAll initializes every service; on failure the initialized ones are stopped newest first
func (h *Hub) InitAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.resolve(); err != nil {
		return err
	}
	h.inited = h.inited[:0]
	for _, name := range h.order {
		if err := h.services[name].Init(ctx); err != nil {
			h.unwind(h.inited)
			h.inited = nil
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
		h.inited = append(h.inited, name)
		h.logger.Debug("service initialized", "service", name)
	}
	return nil
}

// StartAll starts every initialized service; on failure everything initialized is stopped
func (h *Hub) StartAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = h.started[:0]
	for _, name := range h.inited {
		if err := h.services[name].Start(ctx); err != nil {
			h.unwind(h.inited)
			h.inited, h.started = nil, nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
	}
	return nil
}

// StopAll stops every initialized service newest first and joins their errors
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.unwind(h.inited)
	h.inited, h.started = nil, nil
	return err
}

func (h *Hub) unwind(names []string) error {
	var errs []error
	for _, name := range slices.Backward(names) {
		if err := h.services[name].Stop(); err != nil {
			h.logger.Error("service stop failed", "service", name, "error", err)
			errs = append(errs, fmt.Errorf("service %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// resolve caches a depth-first dependency order, visiting names sorted for stability
func (h *Hub) resolve() error {
	if h.order != nil {
		return nil
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(h.services))
	order := make([]string, 0, len(h.services))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %v", ErrCircularDependency, append(path, name))
		}
		state[name] = visiting
		deps := slices.Sorted(slices.Values(h.services[name].Dependencies()))
		for _, dep := range deps {
			if _, ok := h.services[dep]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, name, dep)
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(h.services)) {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	h.order = order
	return nil
}
