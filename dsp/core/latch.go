package core

import (
	"sync"
	"sync/atomic"
)

// Latch hands a settings value from a control goroutine to the real-time
// goroutine. Writers take the mutex only for the copy; the reader never
// waits for it.
type Latch[T any] struct {
	mu      sync.Mutex
	value   T
	pending atomic.Bool
}

// NewLatch returns a latch holding v with nothing pending.
func NewLatch[T any](v T) *Latch[T] {
	return &Latch[T]{value: v}
}

// Load returns the most recently stored value.
func (l *Latch[T]) Load() T {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.value
}

// Store publishes v for the next Take.
func (l *Latch[T]) Store(v T) {
	l.mu.Lock()
	l.value = v
	l.pending.Store(true)
	l.mu.Unlock()
}

// Modify applies fn to the stored value under the lock. If fn returns an
// error nothing is published and the stored value is left as it was.
func (l *Latch[T]) Modify(fn func(*T) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.value
	if err := fn(&next); err != nil {
		return err
	}

	l.value = next
	l.pending.Store(true)

	return nil
}

// Take copies a pending value into dst. It returns false without blocking
// when nothing is pending or a writer currently holds the lock; the value
// is then picked up on a later call.
func (l *Latch[T]) Take(dst *T) bool {
	if !l.pending.Load() {
		return false
	}

	if !l.mu.TryLock() {
		return false
	}

	*dst = l.value
	l.pending.Store(false)
	l.mu.Unlock()

	return true
}
