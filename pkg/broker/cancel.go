package broker

import (
	"context"
	"time"
)

// cancelScope is a cancellation scope composed from up to three sources:
// scheduler shutdown, a caller-supplied cancellation channel, and a
// per-operation timeout. Any one tripping cancels ctx. TimedOut reports
// whether the timeout specifically is what tripped, so completion events
// can distinguish ErrTimeout from ErrCancelled.
type cancelScope struct {
	ctx       context.Context
	cancel    context.CancelFunc
	timeoutAt <-chan struct{}
}

// newCancelScope composes shutdown (the scheduler's shutdown channel),
// callerCancel (the caller-supplied cancellation channel, possibly nil),
// and timeout (<=0 or negative disables the timeout branch) into one scope.
func newCancelScope(shutdown <-chan struct{}, callerCancel <-chan struct{}, timeout time.Duration) *cancelScope {
	ctx, cancel := context.WithCancel(context.Background())

	var timeoutCtx context.Context
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		timeoutCtx, timeoutCancel = context.WithTimeout(context.Background(), timeout)
		_ = timeoutCancel // released when timeoutCtx's deadline fires; scope.release() does not cancel it
	}

	scope := &cancelScope{ctx: ctx, cancel: cancel}
	if timeoutCtx != nil {
		scope.timeoutAt = timeoutCtx.Done()
	}

	go scope.watch(shutdown, callerCancel, timeoutCtx)
	return scope
}

// watch waits for the first of shutdown, callerCancel, timeoutCtx, or the
// scope's own early release to fire, then cancels ctx.
func (s *cancelScope) watch(shutdown <-chan struct{}, callerCancel <-chan struct{}, timeoutCtx context.Context) {
	var timeoutDone <-chan struct{}
	if timeoutCtx != nil {
		timeoutDone = timeoutCtx.Done()
	}

	select {
	case <-shutdown:
	case <-callerCancel:
	case <-timeoutDone:
	case <-s.ctx.Done():
	}
	s.cancel()
}

// Done returns the channel that closes when the scope is cancelled for any
// reason.
func (s *cancelScope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context returns the composed context, suitable for passing to an adapter
// call.
func (s *cancelScope) Context() context.Context {
	return s.ctx
}

// TimedOut reports whether the timeout source specifically is what tripped
// the scope, as opposed to shutdown or caller cancellation.
func (s *cancelScope) TimedOut() bool {
	if s.timeoutAt == nil {
		return false
	}
	select {
	case <-s.timeoutAt:
		return true
	default:
		return false
	}
}

// release cancels the scope's internal context, stopping its watch
// goroutine, without marking the operation as cancelled by the caller (the
// caller calls this once the adapter call has already returned).
func (s *cancelScope) release() {
	s.cancel()
}

// isClosed reports whether ch is already closed, used by intake to detect
// a pre-cancelled caller handle without blocking.
func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
