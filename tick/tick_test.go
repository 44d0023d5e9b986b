package tick

import (
	"log/slog"
	"slices"
	"testing"
	"time"
)

var quiet = slog.New(slog.DiscardHandler)

// MockUpdateable records the ticks it saw
type MockUpdateable struct {
	name  string
	log   *[]string
	ticks []int
	fn    func(tick int)
}

func (m *MockUpdateable) OnTick(tick int) {
	m.ticks = append(m.ticks, tick)
	if m.log != nil {
		*m.log = append(*m.log, m.name)
	}
	if m.fn != nil {
		m.fn(tick)
	}
}

func TestClockOrderAndDuplicates(t *testing.T) {
	var order []string
	c := NewClock(quiet)
	a := &MockUpdateable{name: "a", log: &order}
	b := &MockUpdateable{name: "b", log: &order}
	c.Register(a)
	c.Register(b)
	c.Register(a)

	if got := c.Advance(); got != 1 {
		t.Fatalf("first tick = %d, want 1", got)
	}
	if !slices.Equal(order, []string{"a", "b"}) {
		t.Errorf("order = %v", order)
	}
	if c.Count() != 2 {
		t.Errorf("count = %d, duplicate registered", c.Count())
	}
}

func TestClockRegisterDuringTick(t *testing.T) {
	c := NewClock(quiet)
	late := &MockUpdateable{}
	spawner := &MockUpdateable{}
	spawner.fn = func(tick int) {
		if tick == 1 {
			c.Register(late)
		}
	}
	c.Register(spawner)

	c.Advance()
	if len(late.ticks) != 0 {
		t.Fatal("updateable registered mid-tick ran in the same tick")
	}
	c.Advance()
	if !slices.Equal(late.ticks, []int{2}) {
		t.Errorf("late ticks = %v, want [2]", late.ticks)
	}
}

func TestClockUnregisterDuringTick(t *testing.T) {
	c := NewClock(quiet)
	victim := &MockUpdateable{}
	killer := &MockUpdateable{}
	killer.fn = func(int) { c.Unregister(victim) }
	c.Register(killer)
	c.Register(victim)

	c.Advance()
	c.Advance()
	if !slices.Equal(victim.ticks, []int{1}) {
		t.Errorf("victim ticks = %v, want [1]", victim.ticks)
	}
	if c.Count() != 1 {
		t.Errorf("count = %d", c.Count())
	}
}

func TestClockIsolatesPanics(t *testing.T) {
	c := NewClock(quiet)
	bad := &MockUpdateable{fn: func(int) { panic("boom") }}
	good := &MockUpdateable{}
	c.Register(bad)
	c.Register(good)
	c.AdvanceN(3)
	if len(good.ticks) != 3 {
		t.Errorf("good ticks = %v", good.ticks)
	}
}

func TestClockQueries(t *testing.T) {
	c := NewClock(quiet)
	var started, completed []int
	c.OnStarted(func(n int) { started = append(started, n) })
	c.OnCompleted(func(n int) { completed = append(completed, n) })
	c.AdvanceN(5)

	if c.Since(2) != 3 || !c.HasPassed(2, 3) || c.HasPassed(2, 4) {
		t.Errorf("since/hasPassed wrong at tick %d", c.Current())
	}
	if len(started) != 5 || len(completed) != 5 {
		t.Errorf("observers: %v %v", started, completed)
	}
	c.Reset()
	if c.Current() != 0 {
		t.Errorf("reset current = %d", c.Current())
	}
	c.Restore(40)
	if c.Advance() != 41 {
		t.Errorf("advance after restore = %d, want 41", c.Current())
	}
}

func TestTimersOrderAndCancel(t *testing.T) {
	tm := NewTimers(quiet)
	var fired []string
	rec := func(s string) func() { return func() { fired = append(fired, s) } }

	tm.Schedule("p1", 3, nil, rec("p1-late"))
	tm.Schedule("p1", 2, nil, rec("p1-a"))
	tm.Schedule("p2", 2, nil, rec("p2-a"))
	tm.Schedule("p2", 2, func() bool { return false }, rec("p2-dead"))

	tm.OnTick(1)
	if len(fired) != 0 {
		t.Fatalf("fired early: %v", fired)
	}
	tm.OnTick(2)
	if !slices.Equal(fired, []string{"p1-a", "p2-a"}) {
		t.Errorf("fired = %v", fired)
	}

	if tm.Pending("p1") != 1 {
		t.Errorf("pending p1 = %d", tm.Pending("p1"))
	}
	if n := tm.CancelOwner("p1"); n != 1 {
		t.Errorf("cancelled %d", n)
	}
	tm.OnTick(5)
	if slices.Contains(fired, "p1-late") {
		t.Error("cancelled timer fired")
	}
	if tm.Len() != 0 {
		t.Errorf("len = %d", tm.Len())
	}
}

func TestTimersOnClock(t *testing.T) {
	c := NewClock(quiet)
	tm := NewTimers(quiet)
	c.Register(tm)
	var at int
	tm.Schedule("x", 4, nil, func() { at = c.Current() })
	c.AdvanceN(6)
	if at != 4 {
		t.Errorf("fired at %d, want 4", at)
	}
}

func TestPausableClock(t *testing.T) {
	start := time.Unix(1000, 0)
	mock := NewMockTime(start)
	pc := NewPausableClock(mock)

	mock.Advance(2 * time.Second)
	if pc.Elapsed() != 2*time.Second {
		t.Fatalf("elapsed = %v", pc.Elapsed())
	}
	pc.Pause()
	mock.Advance(5 * time.Second)
	if pc.Elapsed() != 2*time.Second {
		t.Errorf("time moved while paused: %v", pc.Elapsed())
	}
	if pc.TotalPaused() != 5*time.Second {
		t.Errorf("total paused = %v", pc.TotalPaused())
	}
	pc.Resume()
	mock.Advance(time.Second)
	if pc.Elapsed() != 3*time.Second {
		t.Errorf("elapsed after resume = %v", pc.Elapsed())
	}
}

func TestSchedulerStep(t *testing.T) {
	mock := NewMockTime(time.Unix(0, 0))
	pc := NewPausableClock(mock)
	ticks := 0
	var frames []time.Duration
	s := NewScheduler(pc, 100*time.Millisecond, func() { ticks++ },
		WithFrame(50*time.Millisecond, func(dt time.Duration) { frames = append(frames, dt) }),
		WithSchedulerLogger(quiet),
	)
	now := pc.Now()
	s.nextTick = now.Add(100 * time.Millisecond)
	s.nextFrame = now
	s.lastFrameTime = now

	s.step(pc.Now())
	if ticks != 0 || len(frames) != 1 {
		t.Fatalf("t=0: ticks %d frames %d", ticks, len(frames))
	}

	mock.Advance(100 * time.Millisecond)
	sleep := s.step(pc.Now())
	if ticks != 1 {
		t.Errorf("t=100ms ticks = %d", ticks)
	}
	if frames[len(frames)-1] != 100*time.Millisecond {
		t.Errorf("frame dt = %v", frames[len(frames)-1])
	}
	if sleep != 50*time.Millisecond {
		t.Errorf("sleep = %v, want next frame", sleep)
	}

	// Far behind: deadline resyncs instead of bursting
	mock.Advance(time.Second)
	s.step(pc.Now())
	if ticks != 2 {
		t.Errorf("ticks after stall = %d", ticks)
	}
	if !s.nextTick.After(pc.Now()) {
		t.Error("deadline not resynced after stall")
	}
}
