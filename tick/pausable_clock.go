package tick

import (
	"sync"
	"sync/atomic"
	"time"
)

// PausableClock provides simulation time that freezes while paused
type PausableClock struct {
	mu sync.RWMutex

	source    TimeProvider
	realStart time.Time

	paused      atomic.Bool
	pauseStart  time.Time
	totalPaused time.Duration
}

// NewPausableClock creates a running clock over source, the system clock when nil
func NewPausableClock(source TimeProvider) *PausableClock {
	if source == nil {
		source = MonotonicTime{}
	}
	return &PausableClock{
		source:    source,
		realStart: source.Now(),
	}
}

// Now returns simulation time: real elapsed minus total paused, frozen during a pause
func (pc *PausableClock) Now() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if pc.paused.Load() {
		return pc.realStart.Add(pc.pauseStart.Sub(pc.realStart) - pc.totalPaused)
	}
	return pc.realStart.Add(pc.source.Now().Sub(pc.realStart) - pc.totalPaused)
}

// Elapsed returns simulation time since the clock was created
func (pc *PausableClock) Elapsed() time.Duration {
	return pc.Now().Sub(pc.realStart)
}

// Pause stops simulation time
func (pc *PausableClock) Pause() {
	if pc.paused.CompareAndSwap(false, true) {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		pc.pauseStart = pc.source.Now()
	}
}

// Resume continues simulation time
func (pc *PausableClock) Resume() {
	if pc.paused.CompareAndSwap(true, false) {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		if !pc.pauseStart.IsZero() {
			pc.totalPaused += pc.source.Now().Sub(pc.pauseStart)
			pc.pauseStart = time.Time{}
		}
	}
}

// IsPaused returns the pause state
func (pc *PausableClock) IsPaused() bool {
	return pc.paused.Load()
}

// TotalPaused returns cumulative pause time including a pause in progress
func (pc *PausableClock) TotalPaused() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	total := pc.totalPaused
	if pc.paused.Load() && !pc.pauseStart.IsZero() {
		total += pc.source.Now().Sub(pc.pauseStart)
	}
	return total
}
