// Package controller holds the view-state machines the UI consumes. Every
// user action drives one machine through Idle -> Loading -> Success | Error,
// re-entrant from any terminal phase.
package controller

import "sync"

// Phase is the discriminant of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a tagged union: Value is meaningful only in PhaseSuccess, Err only
// in PhaseError.
type State[T any] struct {
	Phase Phase
	Value T
	Err   string
}

// Idle returns the initial state.
func Idle[T any]() State[T] {
	return State[T]{Phase: PhaseIdle}
}

// Loading returns the in-flight state.
func Loading[T any]() State[T] {
	return State[T]{Phase: PhaseLoading}
}

// Success returns a terminal state carrying the payload.
func Success[T any](value T) State[T] {
	return State[T]{Phase: PhaseSuccess, Value: value}
}

// Errored returns a terminal state carrying the displayable message.
func Errored[T any](msg string) State[T] {
	return State[T]{Phase: PhaseError, Err: msg}
}

// Machine is an observable state container. Each action bumps a request
// epoch; completions from an action that is no longer current are discarded,
// so overlapping invocations resolve to the last one started.
type Machine[T any] struct {
	mu      sync.Mutex
	state   State[T]
	epoch   uint64
	subs    map[int]chan State[T]
	nextSub int
}

// NewMachine creates a machine in the Idle state.
func NewMachine[T any]() *Machine[T] {
	return &Machine[T]{
		state: Idle[T](),
		subs:  make(map[int]chan State[T]),
	}
}

// Get returns the current state.
func (m *Machine[T]) Get() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin transitions to Loading and returns the epoch the caller must present
// to Finish.
func (m *Machine[T]) Begin() uint64 {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.state = Loading[T]()
	m.notifyLocked()
	m.mu.Unlock()
	return epoch
}

// Finish applies a terminal state if epoch is still current. It reports
// whether the state was applied.
func (m *Machine[T]) Finish(epoch uint64, state State[T]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return false
	}
	m.state = state
	m.notifyLocked()
	return true
}

// Set applies a state immediately and invalidates any in-flight action.
// Used for failures detected locally, before any repository call.
func (m *Machine[T]) Set(state State[T]) {
	m.mu.Lock()
	m.epoch++
	m.state = state
	m.notifyLocked()
	m.mu.Unlock()
}

// Reset returns the machine to Idle and invalidates in-flight actions.
func (m *Machine[T]) Reset() {
	m.Set(Idle[T]())
}

// Subscribe registers an observer that receives every transition. The
// returned func cancels the subscription.
func (m *Machine[T]) Subscribe() (<-chan State[T], func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan State[T], 32)
	m.subs[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Machine[T]) notifyLocked() {
	for _, ch := range m.subs {
		select {
		case ch <- m.state:
		default:
			// Drop the oldest transition rather than block the machine.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- m.state:
			default:
			}
		}
	}
}
