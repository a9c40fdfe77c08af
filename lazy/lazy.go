// Package lazy provides a once-computed, memoized cell for values that are
// expensive or recursive to build, such as type namespaces and supertypes.
package lazy

import (
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Value.
type State uint32

const (
	// StateUninitialized means the thunk has not run (or its last run failed)
	StateUninitialized State = iota
	// StateComputing means the thunk is running
	StateComputing
	// StateComputed means the value is available and will never change
	StateComputed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateComputing:
		return "computing"
	case StateComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// Value is a cell computed at most once. It is safe for concurrent use:
// concurrent first callers block until the single computation finishes and
// then all observe the same value.
//
// A thunk must not call Get on its own cell.
type Value[T any] struct {
	mu    sync.Mutex
	state atomic.Uint32
	value T
	fn    func() (T, error)
}

// New creates a cell that runs fn on first access.
func New[T any](fn func() (T, error)) *Value[T] {
	return &Value[T]{fn: fn}
}

// Of creates a cell that already holds v.
func Of[T any](v T) *Value[T] {
	c := &Value[T]{value: v}
	c.state.Store(uint32(StateComputed))
	return c
}

// Get returns the cached value, computing it first if needed. A failed
// computation is not cached; the next Get runs the thunk again.
func (v *Value[T]) Get() (T, error) {
	if State(v.state.Load()) == StateComputed {
		return v.value, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if State(v.state.Load()) == StateComputed {
		return v.value, nil
	}

	v.state.Store(uint32(StateComputing))
	value, err := v.fn()
	if err != nil {
		v.state.Store(uint32(StateUninitialized))
		var zero T
		return zero, err
	}

	v.value = value
	v.fn = nil
	v.state.Store(uint32(StateComputed))
	return value, nil
}

// MustGet is Get for thunks that cannot fail.
func (v *Value[T]) MustGet() T {
	value, err := v.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// State reports the current state without forcing the computation.
func (v *Value[T]) State() State {
	return State(v.state.Load())
}
