package broker

import (
	"context"
	"sync"
)

// StubAdapter is a reference Adapter implementation that does no real
// hardware work. Each method optionally blocks on a configured delay
// channel (honouring ctx cancellation) and then either succeeds or returns
// Fault, if set. It
// exists for tests and for demonstration binaries that have no camera to
// talk to.
type StubAdapter struct {
	mu sync.Mutex

	// Delay, if it has a non-nil entry for an operation, supplies a channel
	// that the operation's call blocks on until it is closed (or ctx is
	// done), allowing tests to exercise the timeout path.
	Delay map[OperationType]func() <-chan struct{}

	// Fault, if non-nil, is returned by the named operation instead of
	// succeeding, allowing tests to exercise the hardware-fault path.
	Fault map[OperationType]error

	lastConfiguration CameraConfiguration
}

// NewStubAdapter builds a StubAdapter with no configured delay or fault.
func NewStubAdapter() *StubAdapter {
	return &StubAdapter{
		Delay: make(map[OperationType]func() <-chan struct{}),
		Fault: make(map[OperationType]error),
	}
}

// resolve blocks until ctx is done or the configured delay channel for op
// is closed,
// whichever comes first, then returns the configured fault for op (if
// any) or ctx.Err() (if ctx resolved first) or nil.
func (a *StubAdapter) resolve(ctx context.Context, op OperationType) error {
	var done <-chan struct{}
	if make, ok := a.Delay[op]; ok && make != nil {
		done = make()
	}

	if done != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	} else {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	a.mu.Lock()
	fault := a.Fault[op]
	a.mu.Unlock()
	return fault
}

// Start implements Adapter.
func (a *StubAdapter) Start(ctx context.Context) error {
	return a.resolve(ctx, OpStartStreaming)
}

// Stop implements Adapter.
func (a *StubAdapter) Stop(ctx context.Context) error {
	return a.resolve(ctx, OpStop)
}

// Pause implements Adapter.
func (a *StubAdapter) Pause(ctx context.Context) error {
	return a.resolve(ctx, OpPause)
}

// Resume implements Adapter.
func (a *StubAdapter) Resume(ctx context.Context) error {
	return a.resolve(ctx, OpResume)
}

// UpdateConfiguration implements Adapter.
func (a *StubAdapter) UpdateConfiguration(ctx context.Context, cfg CameraConfiguration) error {
	if err := a.resolve(ctx, OpUpdateConfiguration); err != nil {
		return err
	}
	a.mu.Lock()
	a.lastConfiguration = cfg
	a.mu.Unlock()
	return nil
}

// LastConfiguration returns the configuration most recently applied via
// UpdateConfiguration.
func (a *StubAdapter) LastConfiguration() CameraConfiguration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastConfiguration
}

// SetFault configures op to fail with err. Passing a nil err clears any
// previously configured fault.
func (a *StubAdapter) SetFault(op OperationType, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.Fault, op)
		return
	}
	a.Fault[op] = err
}

// SetDelayChannel configures op to block until ch closes.
func (a *StubAdapter) SetDelayChannel(op OperationType, ch <-chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Delay[op] = func() <-chan struct{} { return ch }
}

// NewStubAdapterFactory returns an AdapterFactory that hands out a fresh
// StubAdapter per resource id.
func NewStubAdapterFactory() AdapterFactory {
	return func(id ResourceId) Adapter {
		return NewStubAdapter()
	}
}
