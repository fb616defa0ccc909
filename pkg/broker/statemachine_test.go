package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginOperationHappyPath(t *testing.T) {
	tbl := NewResourceTable()
	sm := NewStateMachine(tbl)
	id := NewCameraID(1)
	tok := NewOwnerToken("u1")

	tbl.Ensure(id)
	tbl.SetState(id, StateReady)
	require.Nil(t, tbl.Acquire(id, tok))

	require.Nil(t, sm.BeginOperation(id, tok, OpStartStreaming))
	assert.Equal(t, StateStreaming, tbl.GetState(id))

	require.Nil(t, sm.BeginOperation(id, tok, OpPause))
	assert.Equal(t, StatePaused, tbl.GetState(id))

	require.Nil(t, sm.BeginOperation(id, tok, OpResume))
	assert.Equal(t, StateStreaming, tbl.GetState(id))

	require.Nil(t, sm.BeginOperation(id, tok, OpStop))
	assert.Equal(t, StateStopped, tbl.GetState(id))
}

func TestBeginOperationIllegalTransition(t *testing.T) {
	tbl := NewResourceTable()
	sm := NewStateMachine(tbl)
	id := NewCameraID(1)
	tok := NewOwnerToken("u1")

	tbl.Ensure(id)
	tbl.SetState(id, StateStreaming)
	require.Nil(t, tbl.Acquire(id, tok))

	err := sm.BeginOperation(id, tok, OpStartStreaming)
	require.NotNil(t, err)
	assert.True(t, IsCode(err, ErrInvalidArgument))
	// State is left unchanged on rejection.
	assert.Equal(t, StateStreaming, tbl.GetState(id))
}

func TestBeginOperationNonOwnerRejected(t *testing.T) {
	tbl := NewResourceTable()
	sm := NewStateMachine(tbl)
	id := NewCameraID(1)

	tbl.Ensure(id)
	tbl.SetState(id, StateReady)
	require.Nil(t, tbl.Acquire(id, NewOwnerToken("u1")))

	err := sm.BeginOperation(id, NewOwnerToken("u2"), OpStartStreaming)
	require.NotNil(t, err)
	assert.True(t, IsCode(err, ErrOwnership))
	assert.Equal(t, StateReady, tbl.GetState(id))
}

func TestBeginOperationPrepareIsOwnershipExempt(t *testing.T) {
	tbl := NewResourceTable()
	sm := NewStateMachine(tbl)
	id := NewCameraID(1)

	tbl.Ensure(id)
	tbl.SetState(id, StateStopped)

	// No owner at all, yet Prepare is exempt from the ownership check.
	require.Nil(t, sm.BeginOperation(id, OwnerToken{}, OpPrepare))
	assert.Equal(t, StateReady, tbl.GetState(id))
}

func TestBeginOperationErrorReset(t *testing.T) {
	tbl := NewResourceTable()
	sm := NewStateMachine(tbl)
	id := NewCameraID(1)
	tok := NewOwnerToken("u1")

	tbl.Ensure(id)
	tbl.SetState(id, StateError)
	require.Nil(t, tbl.Acquire(id, tok))

	require.Nil(t, sm.BeginOperation(id, tok, OpReset))
	assert.Equal(t, StateReady, tbl.GetState(id))
}

func TestPeekMirrorsTransitionTable(t *testing.T) {
	assert.True(t, Peek(StateReady, OpStartStreaming))
	assert.False(t, Peek(StateReady, OpPause))
	assert.False(t, Peek(StateUninitialized, OpStartStreaming))
}
