package kernel

import (
	"sync"
	"sync/atomic"
)

// Slot is a depth-1, last-writer-wins hand-off cell.
//
// Post replaces any value not yet taken. The consumer takes the value with
// Acquire, which also holds the hand-off lock until Release, so a producer
// posting the next value waits for the consumer to finish reading the
// previous one.
type Slot[T any] struct {
	mu      sync.Mutex
	pending T
	has     bool

	notify   *Notify
	posted   atomic.Uint64
	replaced atomic.Uint64
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{notify: NewNotify()}
}

// Post publishes v and wakes the consumer. It reports whether an untaken value
// was overwritten.
func (s *Slot[T]) Post(v T) (replaced bool) {
	s.mu.Lock()
	replaced = s.has
	s.pending = v
	s.has = true
	s.mu.Unlock()

	s.posted.Add(1)
	if replaced {
		s.replaced.Add(1)
	}
	s.notify.Signal()
	return replaced
}

// Acquire takes the hand-off lock and the pending value, if any. The caller
// must call Release, whether or not a value was returned.
func (s *Slot[T]) Acquire() (T, bool) {
	s.mu.Lock()
	v, ok := s.pending, s.has
	var zero T
	s.pending = zero
	s.has = false
	return v, ok
}

// Release drops the hand-off lock.
func (s *Slot[T]) Release() { s.mu.Unlock() }

// Take returns the pending value without holding the lock afterwards.
func (s *Slot[T]) Take() (T, bool) {
	v, ok := s.Acquire()
	s.Release()
	return v, ok
}

// Wait blocks until a value may be pending or ctx quits.
func (s *Slot[T]) Wait(ctx *Context) bool { return s.notify.Wait(ctx) }

// Wake delivers a wake-up without a value.
func (s *Slot[T]) Wake() { s.notify.Signal() }

// Posted and Replaced count calls to Post and how many of them overwrote an
// untaken value.
func (s *Slot[T]) Posted() uint64   { return s.posted.Load() }
func (s *Slot[T]) Replaced() uint64 { return s.replaced.Load() }
