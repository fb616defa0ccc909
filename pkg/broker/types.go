// Package broker brokers exclusive ownership of hardware-like resources
// (cameras, canonically) and mediates their lifecycle operations. Callers
// obtain a Session bound to a single resource, issue operation requests that
// return an immediate receipt, and observe completion through typed
// callbacks registered on the session.
package broker

import (
	"fmt"
	"time"
)

// ResourceKind tags the family a ResourceId belongs to. Only Camera exists
// today; the field exists so the table can host other kinds without a
// breaking change to ResourceId's shape.
type ResourceKind string

// CameraKind is the only resource kind the core currently recognizes.
const CameraKind ResourceKind = "Camera"

// ResourceId identifies one managed resource. Equality is structural: two
// ResourceId values are the same resource iff both fields match.
type ResourceId struct {
	Kind ResourceKind
	Num  uint32
}

// String renders a ResourceId as "Kind:Num", the form used as map keys in
// logs and trace attributes.
func (r ResourceId) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.Num)
}

// NewCameraID builds a ResourceId for the camera with the given number.
func NewCameraID(num uint32) ResourceId {
	return ResourceId{Kind: CameraKind, Num: num}
}

// CameraState is one of the camera lifecycle's total set of states. The
// zero value is Uninitialized.
type CameraState int

const (
	StateUninitialized CameraState = iota
	StateInitializing
	StateReady
	StateStreaming
	StatePaused
	StateStopped
	StateError
)

// String renders the camera state's name.
func (s CameraState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateStreaming:
		return "Streaming"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// OperationType is one of the camera lifecycle operations a session can
// request. Only Prepare is exempt from the ownership precondition.
type OperationType int

const (
	OpStartStreaming OperationType = iota
	OpStop
	OpPause
	OpResume
	OpUpdateConfiguration
	OpPrepare
	OpReset
)

// String renders the operation type's name.
func (o OperationType) String() string {
	switch o {
	case OpStartStreaming:
		return "StartStreaming"
	case OpStop:
		return "Stop"
	case OpPause:
		return "Pause"
	case OpResume:
		return "Resume"
	case OpUpdateConfiguration:
		return "UpdateConfiguration"
	case OpPrepare:
		return "Prepare"
	case OpReset:
		return "Reset"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// RequiresOwnership reports whether the operation's admission check must
// find the caller as the resource's current owner. Prepare is the single
// exception: it runs before any owner exists.
func (o OperationType) RequiresOwnership() bool {
	return o != OpPrepare
}

// OwnerToken identifies the session holding exclusive access to a resource.
// Two tokens are equal iff their underlying identifiers are equal; the
// value carries no other meaning and is never parsed.
type OwnerToken struct {
	id string
}

// NewOwnerToken wraps an opaque identifier as an OwnerToken.
func NewOwnerToken(id string) OwnerToken {
	return OwnerToken{id: id}
}

// String returns the token's underlying identifier.
func (t OwnerToken) String() string {
	return t.id
}

// IsZero reports whether the token is the unset value.
func (t OwnerToken) IsZero() bool {
	return t.id == ""
}

// Equal reports whether two tokens carry the same identifier.
func (t OwnerToken) Equal(other OwnerToken) bool {
	return t.id == other.id
}

// PixelFormat enumerates the pixel encodings a camera can stream.
type PixelFormat int

const (
	PixelFormatRGB24 PixelFormat = iota
	PixelFormatYUV420
)

// String renders the pixel format's name.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatYUV420:
		return "YUV420"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// CameraConfiguration is an immutable description of the resolution, pixel
// format, and frame rate a camera should stream at. Construct one with
// NewCameraConfiguration, which validates the invariant that width,
// height, and FrameRate are all strictly positive.
type CameraConfiguration struct {
	Width       int         `json:"width" yaml:"width"`
	Height      int         `json:"height" yaml:"height"`
	PixelFormat PixelFormat `json:"pixel_format" yaml:"pixel_format"`
	FrameRate   int         `json:"frame_rate" yaml:"frame_rate"`
}

// NewCameraConfiguration constructs a CameraConfiguration, rejecting any
// non-positive dimension or frame rate.
func NewCameraConfiguration(width, height int, format PixelFormat, frameRate int) (CameraConfiguration, error) {
	cfg := CameraConfiguration{Width: width, Height: height, PixelFormat: format, FrameRate: frameRate}
	if err := cfg.Validate(); err != nil {
		return CameraConfiguration{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration's width, height, and frame
// rate are all strictly positive.
func (c CameraConfiguration) Validate() error {
	if c.Width <= 0 {
		return NewError(ErrInvalidArgument, "", "", fmt.Sprintf("width must be positive, got %d", c.Width))
	}
	if c.Height <= 0 {
		return NewError(ErrInvalidArgument, "", "", fmt.Sprintf("height must be positive, got %d", c.Height))
	}
	if c.FrameRate <= 0 {
		return NewError(ErrInvalidArgument, "", "", fmt.Sprintf("frame rate must be positive, got %d", c.FrameRate))
	}
	return nil
}

// ReceiptStatus is the outcome a synchronous entry point reports
// immediately, before any asynchronous work happens.
type ReceiptStatus int

const (
	StatusAccepted ReceiptStatus = iota
	StatusFailedImmediately
)

// String renders the receipt status's name.
func (s ReceiptStatus) String() string {
	switch s {
	case StatusAccepted:
		return "Accepted"
	case StatusFailedImmediately:
		return "FailedImmediately"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// OperationTicket is the receipt returned by every synchronous entry point.
// A ticket with status Accepted carries no error code; a ticket with
// status FailedImmediately carries exactly one.
type OperationTicket struct {
	OperationID string
	Status      ReceiptStatus
	Error       *Error
	CreatedAt   time.Time
}

// acceptedTicket builds an Accepted ticket for the given operation id.
func acceptedTicket(operationID string) OperationTicket {
	return OperationTicket{
		OperationID: operationID,
		Status:      StatusAccepted,
		CreatedAt:   time.Now(),
	}
}

// failedTicket builds a FailedImmediately ticket carrying err.
func failedTicket(operationID string, err *Error) OperationTicket {
	return OperationTicket{
		OperationID: operationID,
		Status:      StatusFailedImmediately,
		Error:       err,
		CreatedAt:   time.Now(),
	}
}

// OperationRequest is the queued work item the scheduler's intake hands to
// its worker. Callers never construct this type directly; it is built by
// Scheduler.Enqueue from a session's call.
type OperationRequest struct {
	OperationID   string
	ResourceID    ResourceId
	Owner         OwnerToken
	Operation     OperationType
	Configuration *CameraConfiguration
	Cancel        <-chan struct{}
}

// CompletionEvent reports the outcome of one previously accepted operation.
// Success is true iff Error is nil.
type CompletionEvent struct {
	ResourceID  ResourceId
	OperationID string
	Success     bool
	Operation   OperationType
	StateAfter  CameraState
	Metadata    map[string]string
	Error       *Error
	Timestamp   time.Time
}
