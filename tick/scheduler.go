package tick

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/genegarden/core"
)

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithFrame installs a per-frame callback receiving simulation time since the previous frame
func WithFrame(interval time.Duration, fn func(dt time.Duration)) SchedulerOption {
	return func(s *Scheduler) {
		s.frameInterval = interval
		s.frame = fn
	}
}

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler drives world ticks in real time with drift correction and pause awareness
// Tick and frame callbacks run on the scheduler goroutine
type Scheduler struct {
	clock        *PausableClock
	tickInterval time.Duration
	tick         func()

	frameInterval time.Duration
	frame         func(dt time.Duration)

	mu            sync.Mutex
	nextTick      time.Time
	nextFrame     time.Time
	lastFrameTime time.Time

	tickCount atomic.Uint64
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	running   atomic.Bool

	logger *slog.Logger
}

// NewScheduler creates a scheduler calling tick every interval of simulation time
func NewScheduler(clock *PausableClock, interval time.Duration, tick func(), opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:        clock,
		tickInterval: interval,
		tick:         tick,
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.frame != nil && s.frameInterval <= 0 {
		s.frameInterval = interval
	}
	return s
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	if s.running.CompareAndSwap(false, true) {
		s.wg.Add(1)
		core.Go(s.loop)
	}
}

// Stop halts the loop and waits for it to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.running.CompareAndSwap(true, false) {
			close(s.stopChan)
			s.wg.Wait()
		}
	})
}

// Pause freezes simulation time; no ticks or frames run until Resume
func (s *Scheduler) Pause() { s.clock.Pause() }

// Resume continues simulation time
func (s *Scheduler) Resume() { s.clock.Resume() }

// Paused reports the pause state
func (s *Scheduler) Paused() bool { return s.clock.IsPaused() }

// Ticks returns the number of ticks driven so far
func (s *Scheduler) Ticks() uint64 { return s.tickCount.Load() }

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.mu.Lock()
	now := s.clock.Now()
	s.nextTick = now.Add(s.tickInterval)
	s.nextFrame = now
	s.lastFrameTime = now
	s.mu.Unlock()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		var sleep time.Duration
		if s.clock.IsPaused() {
			// Longer sleep while paused
			sleep = s.tickInterval * 2
		} else {
			sleep = s.step(s.clock.Now())
		}

		if sleep > 0 {
			timer.Reset(sleep)
			select {
			case <-timer.C:
			case <-s.stopChan:
				return
			}
		}
	}
}

// step runs whatever is due at now and returns the time until the next deadline
func (s *Scheduler) step(now time.Time) time.Duration {
	s.mu.Lock()
	tickDue := !now.Before(s.nextTick)
	frameDue := s.frame != nil && !now.Before(s.nextFrame)
	s.mu.Unlock()

	if tickDue {
		core.Safely(s.logger, "tick panicked", s.tick, "tick", s.tickCount.Load()+1)
		s.tickCount.Add(1)

		s.mu.Lock()
		s.nextTick = s.nextTick.Add(s.tickInterval)
		if now.Sub(s.nextTick) > s.tickInterval*2 {
			s.logger.Debug("scheduler behind, resyncing", "behind", now.Sub(s.nextTick))
			s.nextTick = now.Add(s.tickInterval)
		}
		s.mu.Unlock()
	}

	if frameDue {
		s.mu.Lock()
		dt := now.Sub(s.lastFrameTime)
		s.lastFrameTime = now
		s.nextFrame = now.Add(s.frameInterval)
		s.mu.Unlock()
		core.Safely(s.logger, "frame panicked", func() { s.frame(dt) })
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.nextTick
	if s.frame != nil && s.nextFrame.Before(next) {
		next = s.nextFrame
	}
	sleep := next.Sub(s.clock.Now())
	if sleep < 0 {
		return 0
	}
	return sleep
}
