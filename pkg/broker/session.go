package broker

import (
	"sync"

	"github.com/google/uuid"
)

// Session binds an owner token to a single resource and exposes a typed
// façade over the shared scheduler, table, and event hub. Sessions never
// hold their own lock on the resource; every check a session performs is
// advisory and is re-validated by the scheduler's worker under the table's
// lock.
type Session struct {
	id         string
	token      OwnerToken
	resourceID ResourceId

	table     *ResourceTable
	scheduler *Scheduler
	hub       *EventHub

	sub subscription

	mu       sync.Mutex
	pending  map[string]OperationType
	handlers map[OperationType]func(CompletionEvent)
	disposed bool
}

// NewSession builds a Session bound to resourceID under the given session
// id, and subscribes it to hub's completion stream for filtering.
func NewSession(id string, resourceID ResourceId, table *ResourceTable, scheduler *Scheduler, hub *EventHub) *Session {
	s := &Session{
		id:         id,
		token:      NewOwnerToken(id),
		resourceID: resourceID,
		table:      table,
		scheduler:  scheduler,
		hub:        hub,
		pending:    make(map[string]OperationType),
		handlers:   make(map[OperationType]func(CompletionEvent)),
	}
	s.sub = hub.Subscribe(s.onCompletion)
	return s
}

// ID returns the session's id.
func (s *Session) ID() string { return s.id }

// Token returns the OwnerToken this session presents to the table.
func (s *Session) Token() OwnerToken { return s.token }

// ResourceID returns the resource this session is bound to.
func (s *Session) ResourceID() ResourceId { return s.resourceID }

// GetCurrentState returns the table's current state for this session's
// resource under the table's shared lock. Never blocks on adapter calls.
func (s *Session) GetCurrentState() CameraState {
	return s.table.GetState(s.resourceID)
}

// OnStarted registers the callback invoked when a StartStreaming
// operation completes.
func (s *Session) OnStarted(cb func(CompletionEvent)) { s.setHandler(OpStartStreaming, cb) }

// OnStopped registers the callback invoked when a Stop operation
// completes.
func (s *Session) OnStopped(cb func(CompletionEvent)) { s.setHandler(OpStop, cb) }

// OnPaused registers the callback invoked when a Pause operation
// completes.
func (s *Session) OnPaused(cb func(CompletionEvent)) { s.setHandler(OpPause, cb) }

// OnResumed registers the callback invoked when a Resume operation
// completes.
func (s *Session) OnResumed(cb func(CompletionEvent)) { s.setHandler(OpResume, cb) }

// OnReconfigured registers the callback invoked when an
// UpdateConfiguration operation completes.
func (s *Session) OnReconfigured(cb func(CompletionEvent)) {
	s.setHandler(OpUpdateConfiguration, cb)
}

// OnReset registers the callback invoked when a Reset operation completes.
func (s *Session) OnReset(cb func(CompletionEvent)) { s.setHandler(OpReset, cb) }

func (s *Session) setHandler(op OperationType, cb func(CompletionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[op] = cb
}

// StartStreaming requests the StartStreaming transition.
func (s *Session) StartStreaming(cancel <-chan struct{}) OperationTicket {
	return s.do(OpStartStreaming, nil, cancel)
}

// Stop requests the Stop transition.
func (s *Session) Stop(cancel <-chan struct{}) OperationTicket {
	return s.do(OpStop, nil, cancel)
}

// Pause requests the Pause transition.
func (s *Session) Pause(cancel <-chan struct{}) OperationTicket {
	return s.do(OpPause, nil, cancel)
}

// Resume requests the Resume transition.
func (s *Session) Resume(cancel <-chan struct{}) OperationTicket {
	return s.do(OpResume, nil, cancel)
}

// UpdateConfiguration requests the UpdateConfiguration transition with cfg
// as the per-request override.
func (s *Session) UpdateConfiguration(cfg CameraConfiguration, cancel <-chan struct{}) OperationTicket {
	return s.do(OpUpdateConfiguration, &cfg, cancel)
}

// Reset requests the Reset transition.
func (s *Session) Reset(cancel <-chan struct{}) OperationTicket {
	return s.do(OpReset, nil, cancel)
}

// Prepare requests the Prepare transition, moving a Stopped resource back
// to Ready. Prepare is the one operation that does not require ownership
// (see OperationType.RequiresOwnership), so it also succeeds for a
// resource this session no longer owns; the transition table is the only
// gate.
func (s *Session) Prepare(cancel <-chan struct{}) OperationTicket {
	return s.do(OpPrepare, nil, cancel)
}

// do runs the per-operation entry point contract: pre-cancellation check,
// advisory ownership and transition checks, pending-map bookkeeping, and
// scheduler intake with a pre-generated operation id.
func (s *Session) do(op OperationType, cfg *CameraConfiguration, cancel <-chan struct{}) OperationTicket {
	if isClosed(cancel) {
		return failedTicket("", cancelledError(op.String(), s.resourceID.String()))
	}

	if op.RequiresOwnership() {
		owner, ok := s.table.CurrentOwner(s.resourceID)
		if !ok || !owner.Equal(s.token) {
			return failedTicket("", ownershipError(op.String(), s.resourceID.String()))
		}
	}

	state := s.table.GetState(s.resourceID)
	if !Peek(state, op) {
		return failedTicket("", transitionError(op.String(), s.resourceID.String(), state))
	}

	operationID := uuid.NewString()
	s.mu.Lock()
	s.pending[operationID] = op
	s.mu.Unlock()

	ticket := s.scheduler.Enqueue(s.resourceID, s.token, op, operationID, cfg, cancel)
	if ticket.Status == StatusFailedImmediately {
		s.mu.Lock()
		delete(s.pending, operationID)
		s.mu.Unlock()
	}

	return ticket
}

// onCompletion is the hub handler this session installs. It filters for
// this session's resource and pending operation ids, then dispatches to
// the typed callback registered for that operation's kind.
func (s *Session) onCompletion(evt CompletionEvent) {
	if evt.ResourceID != s.resourceID {
		return
	}

	s.mu.Lock()
	op, ok := s.pending[evt.OperationID]
	if ok {
		delete(s.pending, evt.OperationID)
	}
	cb := s.handlers[op]
	s.mu.Unlock()

	if !ok || cb == nil {
		return
	}
	cb(evt)
}

// Close unsubscribes the session from the hub. Disposal does not release
// ownership by itself — that is the host's duty on shutdown — but a
// disposed session stops receiving typed events.
func (s *Session) Close() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	s.hub.Unsubscribe(s.sub)
}
