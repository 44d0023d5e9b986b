package event

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Envelope wraps a published payload with its registered type and the tick it was published on
type Envelope struct {
	Type    Type
	Tick    int
	Payload any
}

// Name returns the registered event name
func (e Envelope) Name() string {
	return GetEventName(e.Type)
}

// Subscription identifies a registered handler for Unsubscribe
type Subscription struct {
	key reflect.Type
	id  uint64
}

type handlerEntry struct {
	id uint64
	fn func(any)
}

// Bus is a type-keyed publish/subscribe dispatcher
// Handlers run synchronously on the publishing goroutine in registration order
// Publish iterates over a copy so handlers may subscribe or unsubscribe during dispatch
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]handlerEntry
	all      []handlerEntry
	nextID   uint64

	inbox  *Queue
	clock  func() int
	logger *slog.Logger
}

// anyKey keys handlers registered through SubscribeAll
var anyKey = reflect.TypeOf((*any)(nil)).Elem()

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	InitRegistry()
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[reflect.Type][]handlerEntry),
		inbox:    NewQueue(),
		logger:   logger,
	}
}

// SetClock installs the tick source used to stamp envelopes
func (b *Bus) SetClock(clock func() int) {
	b.mu.Lock()
	b.clock = clock
	b.mu.Unlock()
}

func (b *Bus) add(key reflect.Type, fn func(any)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	entry := handlerEntry{id: b.nextID, fn: fn}
	if key == anyKey {
		b.all = append(b.all, entry)
	} else {
		b.handlers[key] = append(b.handlers[key], entry)
	}
	return Subscription{key: key, id: entry.id}
}

// Subscribe registers handler for payloads of type T
func Subscribe[T any](b *Bus, handler func(T)) Subscription {
	key := reflect.TypeFor[T]()
	return b.add(key, func(v any) {
		handler(v.(T))
	})
}

// SubscribeAll registers handler for every published payload
func (b *Bus) SubscribeAll(handler func(Envelope)) Subscription {
	return b.add(anyKey, func(v any) {
		handler(v.(Envelope))
	})
}

// Unsubscribe removes a handler; unknown subscriptions are ignored
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.key == anyKey {
		b.all = removeEntry(b.all, sub.id)
		return
	}
	list := removeEntry(b.handlers[sub.key], sub.id)
	if len(list) == 0 {
		delete(b.handlers, sub.key)
		return
	}
	b.handlers[sub.key] = list
}

func removeEntry(list []handlerEntry, id uint64) []handlerEntry {
	for i, e := range list {
		if e.id == id {
			out := make([]handlerEntry, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}

// Publish dispatches msg to handlers of type T, then to SubscribeAll handlers
func Publish[T any](b *Bus, msg T) {
	b.dispatch(reflect.TypeFor[T](), msg)
}

// Post enqueues a payload for dispatch on the next Drain
// Safe for concurrent producers
func (b *Bus) Post(msg any) {
	b.inbox.Push(msg)
}

// Drain publishes every posted payload in FIFO order and returns the count
// Must be called from the dispatching goroutine
func (b *Bus) Drain() int {
	msgs := b.inbox.Consume()
	for _, msg := range msgs {
		b.dispatch(reflect.TypeOf(msg), msg)
	}
	return len(msgs)
}

func (b *Bus) dispatch(key reflect.Type, msg any) {
	b.mu.RLock()
	typed := append([]handlerEntry(nil), b.handlers[key]...)
	all := append([]handlerEntry(nil), b.all...)
	clock := b.clock
	b.mu.RUnlock()

	for _, h := range typed {
		b.invoke(h, msg)
	}
	if len(all) == 0 {
		return
	}
	env := Envelope{Type: TypeOf(msg), Payload: msg}
	if clock != nil {
		env.Tick = clock()
	}
	for _, h := range all {
		b.invoke(h, env)
	}
}

func (b *Bus) invoke(h handlerEntry, v any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "payload", fmt.Sprintf("%T", v), "panic", fmt.Sprint(r))
		}
	}()
	h.fn(v)
}

// HandlerCount returns the number of typed handlers for T
func HandlerCount[T any](b *Bus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeFor[T]()])
}
