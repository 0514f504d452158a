// file: internal/fsm/fsm_test.go
package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The request-handle lifecycle this wrapper exists for: a pending request
// either completes or is cancelled, and both outcomes are terminal.
const (
	statePending   State = "pending"
	stateCompleted State = "completed"
	stateCancelled State = "cancelled"

	eventComplete Event = "complete"
	eventCancel   Event = "cancel"
)

func buildRequestLifecycle(t *testing.T) FSM {
	t.Helper()
	m := NewFSM(statePending, nil)
	m.AddTransition(Transition{From: []State{statePending}, To: stateCompleted, Event: eventComplete})
	m.AddTransition(Transition{From: []State{statePending}, To: stateCancelled, Event: eventCancel})
	require.NoError(t, m.Build())
	return m
}

func TestInitialStateAfterBuild(t *testing.T) {
	m := buildRequestLifecycle(t)
	assert.Equal(t, statePending, m.CurrentState())
	assert.True(t, m.CanTransition(eventComplete))
	assert.True(t, m.CanTransition(eventCancel))
}

func TestCompleteTransition(t *testing.T) {
	m := buildRequestLifecycle(t)
	require.NoError(t, m.Transition(context.Background(), eventComplete))
	assert.Equal(t, stateCompleted, m.CurrentState())
}

func TestCancelTransition(t *testing.T) {
	m := buildRequestLifecycle(t)
	require.NoError(t, m.Transition(context.Background(), eventCancel))
	assert.Equal(t, stateCancelled, m.CurrentState())
}

func TestTerminalStatesAreSticky(t *testing.T) {
	m := buildRequestLifecycle(t)
	require.NoError(t, m.Transition(context.Background(), eventComplete))

	// A completed request must not be cancellable, and vice versa.
	assert.False(t, m.CanTransition(eventCancel))
	assert.Error(t, m.Transition(context.Background(), eventCancel))
	assert.Equal(t, stateCompleted, m.CurrentState())

	m = buildRequestLifecycle(t)
	require.NoError(t, m.Transition(context.Background(), eventCancel))
	assert.False(t, m.CanTransition(eventComplete))
	assert.Error(t, m.Transition(context.Background(), eventComplete))
	assert.Equal(t, stateCancelled, m.CurrentState())
}

func TestMultipleFromStatesMergeIntoOneEvent(t *testing.T) {
	m := NewFSM(statePending, nil)
	m.AddTransition(Transition{From: []State{statePending, stateCompleted}, To: stateCancelled, Event: eventCancel})
	require.NoError(t, m.Build())

	require.NoError(t, m.Transition(context.Background(), eventCancel))
	assert.Equal(t, stateCancelled, m.CurrentState())
}

func TestAddTransitionAfterBuildFails(t *testing.T) {
	m := buildRequestLifecycle(t)
	m.AddTransition(Transition{From: []State{stateCompleted}, To: statePending, Event: "reopen"})
	assert.Error(t, m.Build())
}

func TestBuildRejectsMissingFromStates(t *testing.T) {
	m := NewFSM(statePending, nil)
	m.AddTransition(Transition{To: stateCompleted, Event: eventComplete})
	assert.Error(t, m.Build())
}

func TestBuildRejectsConflictingDestinations(t *testing.T) {
	m := NewFSM(statePending, nil)
	m.AddTransition(Transition{From: []State{statePending}, To: stateCompleted, Event: eventComplete})
	m.AddTransition(Transition{From: []State{stateCancelled}, To: statePending, Event: eventComplete})
	assert.Error(t, m.Build())
}

func TestQueriesBeforeBuild(t *testing.T) {
	m := NewFSM(statePending, nil)
	m.AddTransition(Transition{From: []State{statePending}, To: stateCompleted, Event: eventComplete})

	assert.Equal(t, State(""), m.CurrentState())
	assert.False(t, m.CanTransition(eventComplete))
	assert.Error(t, m.Transition(context.Background(), eventComplete))
}
