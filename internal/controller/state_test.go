package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineLifecycle(t *testing.T) {
	m := NewMachine[int]()
	assert.Equal(t, PhaseIdle, m.Get().Phase)

	epoch := m.Begin()
	assert.Equal(t, PhaseLoading, m.Get().Phase)

	assert.True(t, m.Finish(epoch, Success(42)))
	state := m.Get()
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Equal(t, 42, state.Value)

	// Re-entrant: a new action restarts from a terminal phase.
	epoch = m.Begin()
	assert.True(t, m.Finish(epoch, Errored[int]("boom")))
	state = m.Get()
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "boom", state.Err)

	m.Reset()
	assert.Equal(t, PhaseIdle, m.Get().Phase)
}

func TestMachineDiscardsStaleCompletions(t *testing.T) {
	m := NewMachine[string]()

	first := m.Begin()
	second := m.Begin()

	// The slower first action resolves after the second started; the last
	// one started wins.
	assert.False(t, m.Finish(first, Success("stale")))
	assert.True(t, m.Finish(second, Success("fresh")))
	assert.Equal(t, "fresh", m.Get().Value)

	// A direct Set invalidates whatever is in flight.
	epoch := m.Begin()
	m.Set(Errored[string]("Not authenticated"))
	assert.False(t, m.Finish(epoch, Success("late")))
	assert.Equal(t, PhaseError, m.Get().Phase)
}

func TestMachineSubscribeSeesTransitions(t *testing.T) {
	m := NewMachine[int]()
	ch, cancel := m.Subscribe()
	defer cancel()

	epoch := m.Begin()
	m.Finish(epoch, Success(7))

	assert.Equal(t, PhaseLoading, (<-ch).Phase)
	got := <-ch
	assert.Equal(t, PhaseSuccess, got.Phase)
	assert.Equal(t, 7, got.Value)

	cancel()
	m.Begin() // no panic, no delivery after cancel
	select {
	case state, open := <-ch:
		if open {
			t.Fatalf("unexpected delivery after cancel: %+v", state)
		}
	default:
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "success", PhaseSuccess.String())
	assert.Equal(t, "error", PhaseError.String())
}
