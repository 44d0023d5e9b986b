package event

import (
	"sync/atomic"
)

const (
	// QueueSize is the inbox capacity, must be a power of two
	QueueSize = 1024
	queueMask = QueueSize - 1
)

// Queue is a lock-free MPSC ring buffer of posted payloads
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Consume: Single consumer (tick goroutine)
//   - Published flags prevent reading partial writes
//
// Overflow: Oldest payloads overwritten when full
type Queue struct {
	items     [QueueSize]any
	published [QueueSize]atomic.Bool
	head      atomic.Uint64
	tail      atomic.Uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push adds a payload using lock-free CAS with published flags pattern
func (q *Queue) Push(item any) {
	for {
		currentTail := q.tail.Load()
		nextTail := currentTail + 1

		if q.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & queueMask

			q.items[idx] = item
			q.published[idx].Store(true) // MUST be after write

			currentHead := q.head.Load()
			if nextTail-currentHead > QueueSize {
				q.head.CompareAndSwap(currentHead, nextTail-QueueSize)
			}
			return
		}
	}
}

// Consume returns all pending payloads in FIFO order and advances head
func (q *Queue) Consume() []any {
	for {
		currentHead := q.head.Load()
		currentTail := q.tail.Load()

		if currentTail == currentHead {
			return nil
		}

		available := currentTail - currentHead
		if available > QueueSize {
			available = QueueSize
			currentHead = currentTail - QueueSize
		}

		result := make([]any, 0, available)
		for i := uint64(0); i < available; i++ {
			idx := (currentHead + i) & queueMask
			if !q.published[idx].Load() {
				break // Writer incomplete
			}
			result = append(result, q.items[idx])
			q.items[idx] = nil
			q.published[idx].Store(false)
		}

		newHead := currentHead + uint64(len(result))
		if q.head.CompareAndSwap(currentHead, newHead) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len returns approximate pending count
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	diff := int(tail - head)
	if diff > QueueSize {
		return QueueSize
	}
	return diff
}
