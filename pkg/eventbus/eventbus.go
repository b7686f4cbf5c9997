// ABOUTME: Typed publish/subscribe channel used for session broadcasts and transport fan-out
// ABOUTME: Registration-ordered synchronous delivery over a snapshot of the handler list

package eventbus

import "sync"

// Handler is a callback function for events.
type Handler[T any] func(T)

type entry[T any] struct {
	id      uint64
	handler Handler[T]
}

// Bus is a typed event channel that delivers events to registered handlers.
// The zero value is not usable; create buses with New.
type Bus[T any] struct {
	mu      sync.Mutex
	entries []entry[T]
	nextID  uint64
}

// New creates a new event bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers a handler and returns an unsubscribe function.
// The unsubscribe function removes exactly this registration, even when the
// same handler was subscribed more than once, and may be called repeatedly.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.entries = append(b.entries, entry[T]{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all registered handlers in registration order.
// Handlers run synchronously on the caller's goroutine. The handler list is
// snapshotted first, so a handler may subscribe or unsubscribe without
// disturbing the delivery in progress. A panicking handler is not isolated
// from the ones after it. Events published with no handlers are dropped.
func (b *Bus[T]) Publish(event T) {
	b.mu.Lock()
	snapshot := make([]Handler[T], len(b.entries))
	for i, e := range b.entries {
		snapshot[i] = e.handler
	}
	b.mu.Unlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Count returns the number of registered handlers.
func (b *Bus[T]) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Clear removes every registered handler.
func (b *Bus[T]) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}
