package broker

import "context"

// Adapter is the narrow interface a hardware adapter implements for one
// resource. Each method corresponds to one camera lifecycle operation and
// must honour ctx: when ctx is cancelled, the adapter should stop its work
// and return promptly so the scheduler's composed cancellation scope can
// resolve to ErrCancelled or ErrTimeout.
//
// Implementations must be safe for concurrent use; the scheduler never
// calls more than one method on the same resource's adapter at a time, but
// adapter calls for different resources run concurrently on arbitrary
// workers.
type Adapter interface {
	// Start begins streaming.
	Start(ctx context.Context) error

	// Stop ends streaming and releases hardware resources.
	Stop(ctx context.Context) error

	// Pause suspends streaming without releasing hardware resources.
	Pause(ctx context.Context) error

	// Resume resumes streaming from a paused state.
	Resume(ctx context.Context) error

	// UpdateConfiguration applies cfg to the running or idle camera.
	UpdateConfiguration(ctx context.Context, cfg CameraConfiguration) error
}

// AdapterFactory produces one Adapter per ResourceId. A nil factory is
// valid: descriptors exist with no bound adapter, and the scheduler treats
// an absent adapter as a no-op step that still reports success.
type AdapterFactory func(id ResourceId) Adapter
