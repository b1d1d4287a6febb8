package collective

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStream_LifecycleTransitions(t *testing.T) {
	s := NewStream(7, 0, nil)
	assert.Equal(t, StateCreated, s.State)

	s.ChangeState(StateReady)
	s.ChangeState(StateExecuting)
	s.ChangeState(StateExecuting) // same state is a no-op
	s.ChangeState(StateZombie)
	s.ChangeState(StateReady) // re-armed for the next phase
	s.ChangeState(StateDead)
	assert.Equal(t, StateDead, s.State)
}

func TestStream_IllegalTransitionsPanic(t *testing.T) {
	tests := []struct {
		from, to StreamState
	}{
		{StateExecuting, StateReady},
		{StateExecuting, StateCreated},
		{StateDead, StateReady},
		{StateDead, StateZombie},
		{StateZombie, StateExecuting},
	}
	for _, tc := range tests {
		s := &Stream{ID: 1, State: tc.from}
		assert.Panics(t, func() { s.ChangeState(tc.to) }, "%s -> %s", tc.from, tc.to)
	}
}

func TestStream_ForcedFromAnyLiveState(t *testing.T) {
	for _, from := range []StreamState{StateCreated, StateReady, StateExecuting} {
		s := &Stream{State: from}
		s.ChangeState(StateZombie)
		assert.Equal(t, StateZombie, s.State)

		s = &Stream{State: from}
		s.ChangeState(StateDead)
		assert.Equal(t, StateDead, s.State)
	}
}

func TestStream_String(t *testing.T) {
	s := NewStream(3, 2, nil)
	assert.Equal(t, "Stream: (ID: 3, State: created, Queue: 2)", s.String())
}
