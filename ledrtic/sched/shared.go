// Package sched runs periodic tasks at fixed priorities and arbitrates the
// resources they share.
//
// The model is the one used by interrupt-driven firmware: every task is bound
// to an event source, runs to completion each time its source fires and never
// blocks except to enter a critical section. Resources shared between tasks
// are wrapped in Shared, which uses the priority ceiling protocol: while a task
// holds a resource it runs at the resource's ceiling, the highest priority of
// any task that uses it, so no task that could touch the resource can run in
// the meantime.
package sched

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Priority orders tasks. Higher values preempt lower ones.
type Priority uint8

const (
	// PriorityIdle is the priority of code not running in any task.
	PriorityIdle Priority = 0
	// PriorityAnimation is the priority of the animation and input task.
	PriorityAnimation Priority = 1
	// PriorityDisplay is the priority of the display refresh task.
	PriorityDisplay Priority = 2
)

// Shared guards a resource used by tasks of different priorities.
type Shared[T any] struct {
	mu      sync.Mutex
	value   T
	ceiling Priority
	holder  atomic.Uint32 // priority of the task in the critical section, plus one
	entries atomic.Uint64
}

// NewShared wraps v. The ceiling must be the highest priority of any task
// that will lock the resource.
func NewShared[T any](v T, ceiling Priority) *Shared[T] {
	return &Shared[T]{value: v, ceiling: ceiling}
}

// Ceiling returns the resource's ceiling priority.
func (s *Shared[T]) Ceiling() Priority {
	return s.ceiling
}

// Lock runs fn with exclusive access to the resource on behalf of a task at
// priority p. For the duration of fn the caller runs at the ceiling priority.
//
// Lock panics if p is above the ceiling: that task was never declared as a
// user of the resource and the protocol can no longer rule out a deadlock.
func (s *Shared[T]) Lock(p Priority, fn func(v T)) {
	if p > s.ceiling {
		panic("sched: priority " + strconv.Itoa(int(p)) + " locks resource with ceiling " + strconv.Itoa(int(s.ceiling)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holder.Store(uint32(p) + 1)
	defer s.holder.Store(0)
	s.entries.Add(1)
	fn(s.value)
}

// Holder reports the priority of the task inside the critical section, if any.
func (s *Shared[T]) Holder() (p Priority, ok bool) {
	h := s.holder.Load()
	if h == 0 {
		return 0, false
	}
	return Priority(h - 1), true
}

// Entries returns how many critical sections have been entered.
func (s *Shared[T]) Entries() uint64 {
	return s.entries.Load()
}
