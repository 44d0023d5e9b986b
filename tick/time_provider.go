package tick

import (
	"sync"
	"time"
)

// TimeProvider supplies wall-clock readings to the real-time driver
type TimeProvider interface {
	Now() time.Time
}

// MonotonicTime reads the system clock with its monotonic component
type MonotonicTime struct{}

// Now returns the current time
func (MonotonicTime) Now() time.Time {
	return time.Now()
}

// MockTime is a controllable time source for tests
type MockTime struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockTime creates a mock time source starting at start
func NewMockTime(start time.Time) *MockTime {
	return &MockTime{current: start}
}

// Now returns the mocked time
func (m *MockTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set replaces the mocked time
func (m *MockTime) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the mocked time forward by d
func (m *MockTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
