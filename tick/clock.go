// Package tick provides the discrete world clock, a due-tick timer queue and the real-time driver
package tick

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/lixenwraith/genegarden/core"
)

// Updateable receives one call per world tick
// Implementations are compared by identity and must be comparable, typically pointers
type Updateable interface {
	OnTick(tick int)
}

// Clock is the discrete world tick counter and updateable registry
// Registration changes made while a tick is in progress take effect once it finishes
type Clock struct {
	mu      sync.Mutex
	current int
	ticking bool

	updateables []Updateable
	pendingAdd  []Updateable
	pendingDel  []Updateable

	onStarted   []func(tick int)
	onCompleted []func(tick int)

	logger *slog.Logger
}

// NewClock creates a clock at tick 0
func NewClock(logger *slog.Logger) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{logger: logger}
}

// Register adds u; duplicates are ignored
func (c *Clock) Register(u Updateable) {
	if u == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticking {
		if i := slices.Index(c.pendingDel, u); i >= 0 {
			c.pendingDel = slices.Delete(c.pendingDel, i, i+1)
		}
		if !slices.Contains(c.updateables, u) && !slices.Contains(c.pendingAdd, u) {
			c.pendingAdd = append(c.pendingAdd, u)
		}
		return
	}
	if !slices.Contains(c.updateables, u) {
		c.updateables = append(c.updateables, u)
	}
}

// Unregister removes u
func (c *Clock) Unregister(u Updateable) {
	if u == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticking {
		if i := slices.Index(c.pendingAdd, u); i >= 0 {
			c.pendingAdd = slices.Delete(c.pendingAdd, i, i+1)
			return
		}
		if !slices.Contains(c.pendingDel, u) {
			c.pendingDel = append(c.pendingDel, u)
		}
		return
	}
	if i := slices.Index(c.updateables, u); i >= 0 {
		c.updateables = slices.Delete(c.updateables, i, i+1)
	}
}

// OnStarted adds an observer called before updateables each tick
func (c *Clock) OnStarted(fn func(tick int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStarted = append(c.onStarted, fn)
}

// OnCompleted adds an observer called after updateables each tick
func (c *Clock) OnCompleted(fn func(tick int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCompleted = append(c.onCompleted, fn)
}

// Advance increments the tick and calls every registered updateable in registration order
// A panicking updateable is logged and the rest still run
func (c *Clock) Advance() int {
	c.mu.Lock()
	c.current++
	now := c.current
	c.ticking = true
	list := slices.Clone(c.updateables)
	started := slices.Clone(c.onStarted)
	completed := slices.Clone(c.onCompleted)
	c.mu.Unlock()

	for _, fn := range started {
		fn(now)
	}
	for _, u := range list {
		core.Safely(c.logger, "updateable panicked", func() { u.OnTick(now) }, "tick", now)
	}

	c.mu.Lock()
	c.ticking = false
	c.applyPendingLocked()
	c.mu.Unlock()

	for _, fn := range completed {
		fn(now)
	}
	return now
}

// AdvanceN runs n ticks and returns the final tick
func (c *Clock) AdvanceN(n int) int {
	now := c.Current()
	for range n {
		now = c.Advance()
	}
	return now
}

func (c *Clock) applyPendingLocked() {
	for _, u := range c.pendingDel {
		if i := slices.Index(c.updateables, u); i >= 0 {
			c.updateables = slices.Delete(c.updateables, i, i+1)
		}
	}
	for _, u := range c.pendingAdd {
		if !slices.Contains(c.updateables, u) {
			c.updateables = append(c.updateables, u)
		}
	}
	c.pendingAdd = c.pendingAdd[:0]
	c.pendingDel = c.pendingDel[:0]
}

// Ticking reports whether a tick is in progress
func (c *Clock) Ticking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticking
}

// Current returns the last completed tick
func (c *Clock) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Since returns ticks elapsed since t
func (c *Clock) Since(t int) int {
	return c.Current() - t
}

// HasPassed reports whether at least n ticks elapsed since t
func (c *Clock) HasPassed(t, n int) bool {
	return c.Since(t) >= n
}

// Reset returns the counter to 0, keeping registrations
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
}

// Restore moves the counter to t, keeping registrations
func (c *Clock) Restore(t int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = max(t, 0)
}

// Count returns the number of registered updateables, pending changes excluded
func (c *Clock) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updateables)
}
