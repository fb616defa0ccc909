package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single broker
// operation as it moves from session intake through the scheduler.
type LogContext struct {
	TraceID    string    // OpenTelemetry trace ID
	SpanID     string    // OpenTelemetry span ID
	ResourceID string    // Resource id the operation targets
	Operation  string    // Operation type name (StartStreaming, Pause, ...)
	OwnerToken string    // Owning session's token
	StartTime  time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an operation against resourceID.
func NewLogContext(resourceID string) *LogContext {
	return &LogContext{
		ResourceID: resourceID,
		StartTime:  time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOperation returns a copy with the operation type set.
func (lc *LogContext) WithOperation(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithOwner returns a copy with the owning session's token set.
func (lc *LogContext) WithOwner(token string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.OwnerToken = token
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
