package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a Host at Initialize time.
type Options struct {
	// PreRegisterCount is how many camera resources to create eagerly at
	// Initialize time, numbered 1..N.
	PreRegisterCount int

	// DefaultConfiguration is the configuration UpdateConfiguration falls
	// back to when a request supplies none.
	DefaultConfiguration CameraConfiguration

	// Timeouts is the per-operation timeout profile. The zero value
	// resolves to DefaultTimeouts().
	Timeouts Timeouts

	// MetricsEnabled toggles a Prometheus-backed Metrics sink; when
	// false, a NoopMetrics is used.
	MetricsEnabled bool

	// Registry is the Prometheus registerer metrics are registered
	// against, when MetricsEnabled is true. A nil Registry creates
	// metrics without registering them.
	Registry prometheus.Registerer

	// Debug is carried for callers' own use. Host does not read it: it
	// does not change the log level or the tracing sampler.
	Debug bool

	// AdapterFactory produces one Adapter per pre-registered resource. A
	// nil factory leaves descriptors with no bound adapter.
	AdapterFactory AdapterFactory

	// Logger receives Info/Warn/Error events from the core. Defaults to
	// the module's ambient structured logger.
	Logger Logger

	// ShutdownTimeout bounds how long Shutdown waits for the scheduler's
	// worker to drain before giving up.
	ShutdownTimeout time.Duration
}

// Host is the library's public façade: it pre-registers resources and
// hands out sessions. A Host has two lifecycle states, not-initialized and
// initialized; Initialize and Shutdown transition between them and both
// are idempotent.
type Host struct {
	mu          sync.Mutex
	initialized bool
	shutdownAt  bool

	opts Options

	table     *ResourceTable
	sm        *StateMachine
	hub       *EventHub
	scheduler *Scheduler
	metrics   Metrics

	resourceIDs []ResourceId
}

// NewHost constructs a Host in the not-initialized state. Call Initialize
// before creating sessions.
func NewHost() *Host {
	return &Host{}
}

// Initialize brings the host up: builds the table, state machine, event
// hub, and scheduler, pre-registers PreRegisterCount resources (binding an
// adapter to each if opts.AdapterFactory is non-nil), and starts the
// scheduler's worker. Calling Initialize again while already initialized
// is a no-op.
func (h *Host) Initialize(opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized && !h.shutdownAt {
		return nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewSlogLogger()
	}

	var metrics Metrics = NoopMetrics{}
	if opts.MetricsEnabled {
		metrics = NewPromMetrics(opts.Registry)
	}

	timeouts := opts.Timeouts
	if timeouts == (Timeouts{}) {
		timeouts = DefaultTimeouts()
	}

	h.opts = opts
	h.table = NewResourceTable()
	h.sm = NewStateMachine(h.table)
	h.hub = NewEventHub(logger)
	h.scheduler = NewScheduler(h.table, h.sm, h.hub, SchedulerOptions{
		Timeouts:      timeouts,
		DefaultConfig: opts.DefaultConfiguration,
		Logger:        logger,
		Metrics:       metrics,
	})
	h.metrics = metrics

	h.resourceIDs = make([]ResourceId, 0, opts.PreRegisterCount)
	for i := 1; i <= opts.PreRegisterCount; i++ {
		id := NewCameraID(uint32(i))
		h.table.Ensure(id)
		// Prepare moves a freshly-created descriptor from Stopped to
		// Ready; pre-registered resources start at Uninitialized, which
		// the transition table does not route anywhere, so the host sets
		// Ready directly rather than routing a synthetic operation
		// through the scheduler.
		h.table.SetState(id, StateReady)
		if opts.AdapterFactory != nil {
			h.table.RegisterAdapter(id, opts.AdapterFactory(id))
		}
		h.resourceIDs = append(h.resourceIDs, id)
	}

	h.scheduler.Start()
	h.initialized = true
	h.shutdownAt = false

	logger.Info("host initialized", "pre_registered", opts.PreRegisterCount)
	return nil
}

// CreateSession returns a session bound to the first free pre-registered
// resource. userID, if non-empty, becomes the session's id and the owner
// token's identifier; otherwise a fresh id is generated. Fails with
// ErrOwnership when no resource is free, and with ErrNotInitialized before
// Initialize or after Shutdown.
func (h *Host) CreateSession(userID string) (*Session, error) {
	h.mu.Lock()
	if !h.initialized || h.shutdownAt {
		h.mu.Unlock()
		return nil, notInitializedError("CreateSession")
	}
	table := h.table
	scheduler := h.scheduler
	hub := h.hub
	ids := h.resourceIDs
	h.mu.Unlock()

	if userID == "" {
		userID = uuid.NewString()
	}
	token := NewOwnerToken(userID)

	for _, id := range ids {
		if err := table.Acquire(id, token); err == nil {
			return NewSession(userID, id, table, scheduler, hub), nil
		}
	}

	return nil, ownershipError("CreateSession", "")
}

// UpdateRuntimeConfig swaps the default camera configuration and timeout
// profile the scheduler applies to operations admitted from this point
// on, without restarting the host or disturbing any session, descriptor,
// or in-flight operation. A no-op before Initialize or after Shutdown.
func (h *Host) UpdateRuntimeConfig(defaultConfiguration CameraConfiguration, timeouts Timeouts) {
	h.mu.Lock()
	scheduler := h.scheduler
	initialized := h.initialized && !h.shutdownAt
	h.mu.Unlock()

	if !initialized || scheduler == nil {
		return
	}
	scheduler.UpdateRuntimeConfig(defaultConfiguration, timeouts)
}

// Snapshot returns a coherent point-in-time view of every pre-registered
// resource's state and owner, for status surfaces.
func (h *Host) Snapshot() []ResourceSnapshot {
	h.mu.Lock()
	table := h.table
	h.mu.Unlock()
	if table == nil {
		return nil
	}
	return table.Snapshot()
}

// Shutdown idempotently tears the host down: it signals the scheduler to
// stop, waits up to opts.ShutdownTimeout (or ctx's own deadline, whichever
// is sooner) for in-flight work to drain, and closes the event hub.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.initialized || h.shutdownAt {
		h.mu.Unlock()
		return nil
	}
	scheduler := h.scheduler
	hub := h.hub
	table := h.table
	timeout := h.opts.ShutdownTimeout
	h.shutdownAt = true
	h.mu.Unlock()

	shutdownCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := scheduler.Shutdown(shutdownCtx)
	// The scheduler accepts no new work by this point. When Shutdown
	// returned nil its worker has also exited; when the bound expired
	// first (err != nil) the worker may still be finishing an operation.
	// Every outstanding claim is forcibly released in both cases.
	table.ReleaseAll()
	hub.Close()
	return err
}
