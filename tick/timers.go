package tick

import (
	"container/heap"
	"log/slog"
	"sync"

	"github.com/lixenwraith/genegarden/core"
)

type timer struct {
	due   int
	seq   uint64
	owner string
	alive func() bool
	fn    func()
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Timers is a due-tick callback queue driven by the clock
// Entries due on the same tick fire in scheduling order
type Timers struct {
	mu     sync.Mutex
	h      timerHeap
	seq    uint64
	logger *slog.Logger
}

// NewTimers creates an empty queue
func NewTimers(logger *slog.Logger) *Timers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Timers{logger: logger}
}

// Schedule queues fn to run on tick due for owner
// alive is checked just before firing; a false result drops the entry
func (t *Timers) Schedule(owner string, due int, alive func() bool, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	heap.Push(&t.h, &timer{due: due, seq: t.seq, owner: owner, alive: alive, fn: fn})
}

// CancelOwner drops every entry owned by owner and returns how many were dropped
func (t *Timers) CancelOwner(owner string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.h[:0]
	dropped := 0
	for _, e := range t.h {
		if e.owner == owner {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(t.h); i++ {
		t.h[i] = nil
	}
	t.h = kept
	for i, e := range t.h {
		e.index = i
	}
	heap.Init(&t.h)
	return dropped
}

// Pending returns the number of entries owned by owner
func (t *Timers) Pending(owner string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.h {
		if e.owner == owner {
			n++
		}
	}
	return n
}

// Len returns the number of queued entries
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.h)
}

// OnTick fires every entry due at or before tick
// Entries scheduled by a firing callback for the current tick fire on the next one
func (t *Timers) OnTick(tick int) {
	t.mu.Lock()
	var due []*timer
	for len(t.h) > 0 && t.h[0].due <= tick {
		due = append(due, heap.Pop(&t.h).(*timer))
	}
	t.mu.Unlock()

	for _, e := range due {
		if e.alive != nil && !e.alive() {
			t.logger.Debug("timer dropped, owner gone", "owner", e.owner, "due", e.due)
			continue
		}
		core.Safely(t.logger, "timer callback panicked", e.fn, "owner", e.owner, "tick", tick)
	}
}
