package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for broker spans. These follow OpenTelemetry semantic
// convention style (dotted namespace) without claiming any official
// semconv package, since no such package exists for this domain.
const (
	AttrResourceID  = "broker.resource_id"
	AttrResourceKind = "broker.resource_kind"
	AttrOperation   = "broker.operation"
	AttrOperationID = "broker.operation_id"
	AttrOwnerToken  = "broker.owner_token"
	AttrState       = "broker.state"
	AttrStateAfter  = "broker.state_after"
	AttrSuccess     = "broker.success"
	AttrErrorCode   = "broker.error_code"
	AttrTimedOut    = "broker.timed_out"
)

// Span names for the scheduler's operation lifecycle.
const (
	SpanProcessRequest = "scheduler.process_request"
	SpanBeginOperation = "statemachine.begin_operation"
	SpanAdapterCall    = "adapter.call"
	SpanDispatchEvent  = "eventhub.dispatch"
)

// ResourceID returns an attribute for a resource id.
func ResourceID(id string) attribute.KeyValue {
	return attribute.String(AttrResourceID, id)
}

// ResourceKind returns an attribute for a resource kind tag ("Camera").
func ResourceKind(kind string) attribute.KeyValue {
	return attribute.String(AttrResourceKind, kind)
}

// Operation returns an attribute for the operation type name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// OperationID returns an attribute for the operation id.
func OperationID(id string) attribute.KeyValue {
	return attribute.String(AttrOperationID, id)
}

// OwnerToken returns an attribute for the owner token.
func OwnerToken(token string) attribute.KeyValue {
	return attribute.String(AttrOwnerToken, token)
}

// State returns an attribute for a camera state name.
func State(s string) attribute.KeyValue {
	return attribute.String(AttrState, s)
}

// StateAfter returns an attribute for the post-operation state name.
func StateAfter(s string) attribute.KeyValue {
	return attribute.String(AttrStateAfter, s)
}

// Success returns an attribute for the operation outcome.
func Success(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrSuccess, ok)
}

// ErrCode returns an attribute for a failure's error code.
func ErrCode(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}

// TimedOut returns an attribute recording whether a cancellation was a timeout.
func TimedOut(v bool) attribute.KeyValue {
	return attribute.Bool(AttrTimedOut, v)
}

// StartOperationSpan starts the root span for one scheduled operation,
// tagged with the resource it targets and its operation id.
func StartOperationSpan(ctx context.Context, resourceID, operationID, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ResourceID(resourceID),
		OperationID(operationID),
		Operation(op),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanProcessRequest, trace.WithAttributes(allAttrs...))
}

// StartAdapterSpan starts a child span bracketing the hardware adapter call
// for one operation.
func StartAdapterSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{Operation(op)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, SpanAdapterCall, trace.WithAttributes(allAttrs...))
}
