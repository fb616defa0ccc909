package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deviceflow/resbroker/internal/telemetry"
)

// Timeouts holds the per-operation timeout profile the scheduler composes
// into each request's cancellation scope. A timeout of zero or negative
// disables the timeout branch for that operation.
type Timeouts struct {
	Start               time.Duration
	Stop                time.Duration
	Pause               time.Duration
	Resume              time.Duration
	UpdateConfiguration time.Duration
	Reset               time.Duration
	Fallback            time.Duration
}

// DefaultTimeouts returns the spec's default timeout profile.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Start:               5 * time.Second,
		Stop:                5 * time.Second,
		Pause:               3 * time.Second,
		Resume:              3 * time.Second,
		UpdateConfiguration: 4 * time.Second,
		Reset:               10 * time.Second,
		Fallback:            5 * time.Second,
	}
}

// forOp returns the configured timeout for op, falling back to Fallback
// when op has no specific entry (Prepare has none in the spec's profile).
func (t Timeouts) forOp(op OperationType) time.Duration {
	switch op {
	case OpStartStreaming:
		return t.Start
	case OpStop:
		return t.Stop
	case OpPause:
		return t.Pause
	case OpResume:
		return t.Resume
	case OpUpdateConfiguration:
		return t.UpdateConfiguration
	case OpReset:
		return t.Reset
	default:
		return t.Fallback
	}
}

// requestQueue is an unbounded, multi-producer, single-consumer FIFO queue.
// Push never blocks the caller; pop blocks until an item is available or
// the queue is closed.
type requestQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*OperationRequest
	closed bool
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends req to the queue and wakes the consumer. Fire-and-forget:
// the caller never waits for the consumer to drain it.
func (q *requestQueue) push(req *OperationRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, req)
	q.cond.Signal()
}

// pop blocks until an item is available or the queue is closed, in which
// case it returns (nil, false) once drained.
func (q *requestQueue) pop() (*OperationRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

// close marks the queue closed and wakes the consumer so it can drain
// whatever remains and exit.
func (q *requestQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Scheduler turns synchronous acceptance into asynchronous execution. A
// single worker goroutine drains an unbounded intake queue in FIFO order;
// intake itself never blocks on an adapter call.
type Scheduler struct {
	table   *ResourceTable
	sm      *StateMachine
	hub     *EventHub
	logger  Logger
	metrics Metrics

	// runtimeMu guards timeouts and defaultConfig, which UpdateRuntimeConfig
	// can swap out while the worker loop is running (config hot-reload).
	// Every request already picks these up fresh from ProcessRequest, so a
	// reload only ever affects operations admitted after it lands.
	runtimeMu     sync.RWMutex
	timeouts      Timeouts
	defaultConfig CameraConfiguration

	queue    *requestQueue
	shutdown chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// SchedulerOptions configures a Scheduler's behavior.
type SchedulerOptions struct {
	Timeouts      Timeouts
	DefaultConfig CameraConfiguration
	Logger        Logger
	Metrics       Metrics
}

// NewScheduler builds a Scheduler over table, sm, and hub. Call Start to
// begin draining the intake queue.
func NewScheduler(table *ResourceTable, sm *StateMachine, hub *EventHub, opts SchedulerOptions) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &Scheduler{
		table:         table,
		sm:            sm,
		hub:           hub,
		logger:        logger,
		metrics:       metrics,
		timeouts:      opts.Timeouts,
		defaultConfig: opts.DefaultConfig,
		queue:         newRequestQueue(),
		shutdown:      make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start begins the worker loop. Safe to call once per Scheduler.
func (s *Scheduler) Start() {
	go s.workerLoop()
}

// UpdateRuntimeConfig swaps the default camera configuration and timeout
// profile used by operations admitted from this point on. It never
// touches an operation already in flight or already queued ahead of the
// swap; the new values simply take effect for every ProcessRequest call
// that reads them afterward. This is the seam a config file watcher uses
// to apply an edited config without restarting the process.
func (s *Scheduler) UpdateRuntimeConfig(defaultConfig CameraConfiguration, timeouts Timeouts) {
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()
	s.defaultConfig = defaultConfig
	s.timeouts = timeouts
}

func (s *Scheduler) currentTimeouts() Timeouts {
	s.runtimeMu.RLock()
	defer s.runtimeMu.RUnlock()
	return s.timeouts
}

func (s *Scheduler) currentDefaultConfig() CameraConfiguration {
	s.runtimeMu.RLock()
	defer s.runtimeMu.RUnlock()
	return s.defaultConfig
}

// Shutdown signals the worker to stop accepting new cancellation scopes
// (existing in-flight adapter calls observe the shutdown channel and
// unwind) and blocks until the worker has drained and exited, or ctx is
// done first.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.once.Do(func() {
		close(s.shutdown)
		s.queue.close()
	})

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue is the scheduler's synchronous intake. It validates the caller's
// cancellation handle, builds an Accepted receipt, writes the request to
// the queue, and returns — never waiting on the worker.
func (s *Scheduler) Enqueue(id ResourceId, token OwnerToken, op OperationType, operationID string, cfg *CameraConfiguration, cancel <-chan struct{}) OperationTicket {
	if isClosed(cancel) {
		return failedTicket(operationID, cancelledError(op.String(), id.String()))
	}

	if operationID == "" {
		operationID = uuid.NewString()
	}

	s.queue.push(&OperationRequest{
		OperationID:   operationID,
		ResourceID:    id,
		Owner:         token,
		Operation:     op,
		Configuration: cfg,
		Cancel:        cancel,
	})

	s.logger.Info("operation accepted", "operation_id", operationID, "resource_id", id.String(), "operation", op.String())
	s.metrics.IncOperations(op)

	return acceptedTicket(operationID)
}

// workerLoop repeatedly pops items and processes them until the queue is
// closed and drained.
func (s *Scheduler) workerLoop() {
	defer close(s.stopped)

	for {
		req, ok := s.queue.pop()
		if !ok {
			return
		}
		s.ProcessRequest(req)
	}
}

// ProcessRequest executes one previously accepted request: it re-validates
// the transition under the state machine, invokes the bound adapter under
// a composed cancellation scope, and emits exactly one completion event
// unless the state machine rejects the request (in which case no event is
// emitted, by policy).
func (s *Scheduler) ProcessRequest(req *OperationRequest) {
	start := time.Now()
	ctx, span := telemetry.StartOperationSpan(context.Background(), req.ResourceID.String(), req.OperationID, req.Operation.String())
	defer span.End()

	if err := s.sm.BeginOperation(req.ResourceID, req.Owner, req.Operation); err != nil {
		s.logger.Error("state machine rejected operation", "operation_id", req.OperationID, "resource_id", req.ResourceID.String(), "operation", req.Operation.String(), "error_code", string(err.Code))
		s.metrics.IncFailures(req.Operation, err.Code)
		telemetry.SetAttributes(ctx, telemetry.Success(false), telemetry.ErrCode(string(err.Code)))
		return
	}

	scope := newCancelScope(s.shutdown, req.Cancel, s.currentTimeouts().forOp(req.Operation))
	defer scope.release()

	adapterErr := s.invokeAdapter(scope.Context(), req)

	if adapterErr == nil {
		state := s.table.GetState(req.ResourceID)
		s.metrics.ObserveLatency(req.Operation, time.Since(start))
		telemetry.SetAttributes(ctx, telemetry.Success(true), telemetry.StateAfter(state.String()))
		s.hub.Publish(CompletionEvent{
			ResourceID:  req.ResourceID,
			OperationID: req.OperationID,
			Success:     true,
			Operation:   req.Operation,
			StateAfter:  state,
			Timestamp:   time.Now(),
		})
		return
	}

	var code ErrorCode
	var brokerErr *Error
	switch {
	case errors.Is(adapterErr, context.DeadlineExceeded), scope.TimedOut():
		code = ErrTimeout
		brokerErr = timeoutError(req.Operation.String(), req.ResourceID.String())
		s.logger.Warn("operation timed out", "operation_id", req.OperationID, "resource_id", req.ResourceID.String(), "operation", req.Operation.String())
	case errors.Is(adapterErr, context.Canceled):
		code = ErrCancelled
		brokerErr = cancelledError(req.Operation.String(), req.ResourceID.String())
		s.logger.Warn("operation cancelled", "operation_id", req.OperationID, "resource_id", req.ResourceID.String(), "operation", req.Operation.String())
	default:
		code = ErrHardwareFault
		brokerErr = hardwareFaultError(req.Operation.String(), req.ResourceID.String(), adapterErr)
		s.logger.Error("adapter fault", "operation_id", req.OperationID, "resource_id", req.ResourceID.String(), "operation", req.Operation.String(), "error", adapterErr.Error())
	}

	s.metrics.IncFailures(req.Operation, code)
	telemetry.SetAttributes(ctx, telemetry.Success(false), telemetry.ErrCode(string(code)), telemetry.TimedOut(code == ErrTimeout))

	s.hub.Publish(CompletionEvent{
		ResourceID:  req.ResourceID,
		OperationID: req.OperationID,
		Success:     false,
		Operation:   req.Operation,
		StateAfter:  s.table.GetState(req.ResourceID),
		Error:       brokerErr,
		Timestamp:   time.Now(),
	})
}

// invokeAdapter dispatches req.Operation to the resource's bound adapter.
// An absent adapter is treated as a no-op step that still takes the
// success path; Prepare and Reset have no adapter-facing method.
func (s *Scheduler) invokeAdapter(ctx context.Context, req *OperationRequest) error {
	adapter := s.table.adapterFor(req.ResourceID)
	if adapter == nil {
		return nil
	}

	adapterCtx, span := telemetry.StartAdapterSpan(ctx, req.Operation.String())
	defer span.End()

	switch req.Operation {
	case OpStartStreaming:
		return adapter.Start(adapterCtx)
	case OpStop:
		return adapter.Stop(adapterCtx)
	case OpPause:
		return adapter.Pause(adapterCtx)
	case OpResume:
		return adapter.Resume(adapterCtx)
	case OpUpdateConfiguration:
		cfg := s.currentDefaultConfig()
		if req.Configuration != nil {
			cfg = *req.Configuration
		}
		return adapter.UpdateConfiguration(adapterCtx, cfg)
	default:
		// Prepare and Reset have no corresponding adapter method.
		return nil
	}
}
