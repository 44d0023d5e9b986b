package service

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

var ErrNotRegistered = errors.New("capability not registered")

// Container maps a capability interface type to its implementation
// It is constructed at the composition root and passed explicitly; there is no package-level instance
type Container struct {
	mu        sync.Mutex
	items     map[reflect.Type]any
	factories map[reflect.Type]func() (any, error)
	logger    *slog.Logger
}

// NewContainer creates an empty container
func NewContainer(logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{
		items:     make(map[reflect.Type]any),
		factories: make(map[reflect.Type]func() (any, error)),
		logger:    logger,
	}
}

// Register binds impl as the implementation of capability T
func Register[T any](c *Container, impl T) error {
	key := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	c.items[key] = impl
	return nil
}

// Provide declares a first-use fallback for capability T
// The factory runs at most once, only when Resolve finds no registration
func Provide[T any](c *Container, factory func() (T, error)) {
	key := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[key] = func() (any, error) {
		return factory()
	}
}

// Resolve returns the implementation of capability T
// A missing registration with a declared fallback builds, registers and returns it
// The factory runs without the lock held so it may resolve other capabilities
func Resolve[T any](c *Container) (T, error) {
	var zero T
	key := reflect.TypeFor[T]()

	c.mu.Lock()
	if v, ok := c.items[key]; ok {
		c.mu.Unlock()
		return v.(T), nil
	}
	factory, ok := c.factories[key]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	delete(c.factories, key)
	c.mu.Unlock()

	c.logger.Warn("capability requested before registration, building fallback", "capability", key.String())
	v, err := factory()
	if err != nil {
		return zero, fmt.Errorf("fallback for %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing.(T), nil
	}
	c.items[key] = v
	return v.(T), nil
}

// MustResolve returns the implementation of T or panics
// Intended for composition roots where a missing capability is a programming error
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether T is registered, without triggering a fallback
func Has[T any](c *Container) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[reflect.TypeFor[T]()]
	return ok
}

// Reset drops every registration and fallback
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[reflect.Type]any)
	c.factories = make(map[reflect.Type]func() (any, error))
}
