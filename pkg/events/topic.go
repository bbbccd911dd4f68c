package events

import "sync"

type listener[T any] struct {
	id   uint64
	fn   func(T)
	once bool
}

// Topic is a list of listeners for values of type T. The zero value is
// ready to use. Listeners are called in registration order, outside the
// topic's lock, so they may subscribe or cancel during delivery.
type Topic[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener[T]
}

// On registers fn for every emitted value
func (t *Topic[T]) On(fn func(T)) Subscription {
	return t.add(fn, false)
}

// Once registers fn for the next emitted value only
func (t *Topic[T]) Once(fn func(T)) Subscription {
	return t.add(fn, true)
}

func (t *Topic[T]) add(fn func(T), once bool) Subscription {
	if fn == nil {
		return Nop
	}

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.listeners = append(t.listeners, listener[T]{id: id, fn: fn, once: once})
	t.mu.Unlock()

	return NewSubscription(func() { t.remove(id) })
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, l := range t.listeners {
		if l.id == id {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// Emit delivers v to the current listeners and returns how many were called
func (t *Topic[T]) Emit(v T) int {
	t.mu.Lock()
	snapshot := make([]listener[T], len(t.listeners))
	copy(snapshot, t.listeners)
	kept := t.listeners[:0:0]
	for _, l := range t.listeners {
		if !l.once {
			kept = append(kept, l)
		}
	}
	t.listeners = kept
	t.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
	return len(snapshot)
}

// Count returns the number of registered listeners
func (t *Topic[T]) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// Clear removes every listener
func (t *Topic[T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = nil
}
