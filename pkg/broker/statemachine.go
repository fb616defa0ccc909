package broker

// transitionKey is the (state, operation) pair the transition table is
// keyed by.
type transitionKey struct {
	state CameraState
	op    OperationType
}

// transitions is the total transition relation: any (state, op) pair not
// present in this map is rejected with ErrInvalidArgument. The relation is
// intentionally a plain map rather than a generated switch, mirroring the
// table-as-data style of the admission rules it sits beside.
var transitions = map[transitionKey]CameraState{
	{StateReady, OpStartStreaming}:      StateStreaming,
	{StateReady, OpUpdateConfiguration}: StateReady,
	{StateStreaming, OpPause}:           StatePaused,
	{StateStreaming, OpStop}:            StateStopped,
	{StateStreaming, OpUpdateConfiguration}: StateStreaming,
	{StatePaused, OpResume}:             StateStreaming,
	{StatePaused, OpStop}:               StateStopped,
	{StateStopped, OpPrepare}:           StateReady,
	{StateError, OpReset}:               StateReady,
}

// nextState looks up the transition table entry for (state, op).
func nextState(state CameraState, op OperationType) (CameraState, bool) {
	next, ok := transitions[transitionKey{state, op}]
	return next, ok
}

// StateMachine enforces the transition table and the ownership
// precondition against the resource table. It holds no state of its own;
// BeginOperation's critical section runs entirely under the table's lock.
type StateMachine struct {
	table *ResourceTable
}

// NewStateMachine builds a StateMachine backed by table.
func NewStateMachine(table *ResourceTable) *StateMachine {
	return &StateMachine{table: table}
}

// BeginOperation validates ownership and the transition table for
// (id, token, op) and, if both hold, commits the next state. The entire
// check-then-commit sequence executes as one critical section under the
// table's write lock; no observer can witness an intermediate state.
func (m *StateMachine) BeginOperation(id ResourceId, token OwnerToken, op OperationType) *Error {
	return m.table.withWriteLock(id, func(d *resourceDescriptor) *Error {
		if op.RequiresOwnership() {
			if d.owner.IsZero() || !d.owner.Equal(token) {
				return ownershipError(op.String(), id.String())
			}
		}

		next, ok := nextState(d.state, op)
		if !ok {
			return transitionError(op.String(), id.String(), d.state)
		}

		d.state = next
		return nil
	})
}

// Peek reports whether the transition (state, op) is defined, without
// consulting ownership or committing anything. It is lock-free and used by
// Session to short-circuit obvious rejections before paying for intake.
func Peek(state CameraState, op OperationType) bool {
	_, ok := nextState(state, op)
	return ok
}
