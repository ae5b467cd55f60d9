// Package notify is a small observer registry. Listeners are called
// synchronously, in subscription order, on the publisher's goroutine. A
// listener that panics or returns an error is logged and skipped; the
// remaining listeners still receive the event.
package notify

import (
	"fmt"
	"log/slog"
)

// Listener receives one event
type Listener[T any] func(event T) error

// Registry fans events of type T out to subscribed listeners
type Registry[T any] struct {
	name      string
	logger    *slog.Logger
	nextID    int
	listeners []subscription[T]
}

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// New creates a registry. name identifies the registry in log records.
func New[T any](name string, logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{name: name, logger: logger}
}

// Subscribe adds a listener and returns a func that removes it again
func (r *Registry[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, subscription[T]{id: id, fn: fn})
	return func() {
		for i, s := range r.listeners {
			if s.id == id {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// SubscribeFunc adds a listener that cannot fail
func (r *Registry[T]) SubscribeFunc(fn func(event T)) (unsubscribe func()) {
	return r.Subscribe(func(event T) error {
		fn(event)
		return nil
	})
}

// Len returns the number of subscribed listeners
func (r *Registry[T]) Len() int {
	return len(r.listeners)
}

// Publish delivers event to every listener subscribed at the time of the
// call. It returns the number of listeners that failed.
func (r *Registry[T]) Publish(event T) int {
	snapshot := make([]subscription[T], len(r.listeners))
	copy(snapshot, r.listeners)

	failed := 0
	for _, s := range snapshot {
		if err := r.deliver(s.fn, event); err != nil {
			failed++
			r.logger.Error("listener failed", "registry", r.name, "listener", s.id, "error", err)
		}
	}
	return failed
}

func (r *Registry[T]) deliver(fn Listener[T], event T) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return fn(event)
}
