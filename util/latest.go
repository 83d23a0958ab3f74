package util

import (
	"sync/atomic"
)

// Latest holds the most recently published immutable value. Readers load it
// without locking; publishers replace the pointer as a whole, so a reader
// never observes a half-written value. Values passed to Publish must not be
// modified afterwards.
type Latest[T any] struct {
	value  atomic.Pointer[T]
	notify chan struct{} // Buffered channel of size 1 for notification
}

// NewLatest creates a Latest already holding initial.
func NewLatest[T any](initial *T) *Latest[T] {
	l := &Latest[T]{
		notify: make(chan struct{}, 1),
	}
	l.value.Store(initial)
	return l
}

// Publish replaces the current value and signals Changed. It is non-blocking.
func (l *Latest[T]) Publish(v *T) {
	l.value.Store(v)

	select {
	case l.notify <- struct{}{}:
	default:
		// A notification is already pending; readers will pick up v.
	}
}

// Load returns the current value.
func (l *Latest[T]) Load() *T {
	return l.value.Load()
}

// Changed returns the notification channel for use in select statements.
// Several publishes between two receives coalesce into one notification.
func (l *Latest[T]) Changed() <-chan struct{} {
	return l.notify
}
