// Package event provides a small typed callback list used for editor notifications.
package event

import "slices"

// Emitter holds listeners for a single notification type. It is not safe for
// concurrent use; every emitter lives on the editor's event loop.
type Emitter[T any] struct {
	nextID    uint32
	listeners []listener[T]
}

type listener[T any] struct {
	id uint32
	fn func(T)
}

// Handle removes a registered listener.
type Handle struct {
	remove func()
}

// Remove unregisters the listener. Calling it more than once is harmless.
func (h Handle) Remove() {
	if h.remove != nil {
		h.remove()
	}
}

// On registers fn and returns a handle that removes it.
func (e *Emitter[T]) On(fn func(T)) Handle {
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return Handle{remove: func() {
		e.listeners = slices.DeleteFunc(e.listeners, func(l listener[T]) bool { return l.id == id })
	}}
}

// Emit calls every listener in registration order. Listeners added or removed
// during Emit take effect on the next call.
func (e *Emitter[T]) Emit(v T) {
	for _, l := range slices.Clone(e.listeners) {
		l.fn(v)
	}
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int { return len(e.listeners) }
