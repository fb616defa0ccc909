package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so aggregation/querying doesn't have to deal
// with several spellings of the same concept.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Broker domain
	KeyResourceID   = "resource_id"   // ResourceId.String()
	KeyOperation    = "operation"     // OperationType name
	KeyOperationID  = "operation_id"  // OperationTicket/CompletionEvent id
	KeyOwnerToken   = "owner_token"   // OwnerToken identifier
	KeySessionID    = "session_id"    // Session id
	KeyState        = "state"         // CameraState name
	KeyErrorCode    = "error_code"    // ErrorCode string (e.g. OWN2001)
	KeyDurationMs   = "duration_ms"   // Operation duration in milliseconds
	KeyTimeoutMs    = "timeout_ms"    // Configured timeout in milliseconds
	KeyHandlerIndex = "handler_index" // Event hub subscriber index, for fault logs
)

// ResourceID returns a slog.Attr for a resource id.
func ResourceID(id string) slog.Attr {
	return slog.String(KeyResourceID, id)
}

// Operation returns a slog.Attr for an operation type name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// OperationID returns a slog.Attr for an operation id.
func OperationID(id string) slog.Attr {
	return slog.String(KeyOperationID, id)
}

// OwnerToken returns a slog.Attr for an owner token.
func OwnerToken(token string) slog.Attr {
	return slog.String(KeyOwnerToken, token)
}

// SessionID returns a slog.Attr for a session id.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// State returns a slog.Attr for a camera state name.
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// ErrorCode returns a slog.Attr for an error code.
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// DurationMs returns a slog.Attr for an elapsed duration, in milliseconds.
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// TimeoutMs returns a slog.Attr for a configured timeout, in milliseconds.
func TimeoutMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyTimeoutMs, float64(d.Microseconds())/1000.0)
}

// KeyError is the standard field key for a wrapped error value.
const KeyError = "error"

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
