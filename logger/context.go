// Package logger provides structured logging for the Media Session Pipeline.
package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for the fields every session-lifecycle log line carries.
const (
	// ContextKeyCallID identifies the call a log line belongs to.
	ContextKeyCallID contextKey = "call_id"

	// ContextKeyStreamID identifies the stream within a call.
	ContextKeyStreamID contextKey = "stream_id"

	// ContextKeyComponent identifies the pipeline component emitting the log
	// (e.g. "session_manager", "transcription_client", "insights_extractor").
	ContextKeyComponent contextKey = "component"

	// ContextKeyCorrelationID is used for distributed tracing across the
	// WebSocket connection and its outbound HTTP calls.
	ContextKeyCorrelationID contextKey = "correlation_id"
)

// allContextKeys lists all context keys the handler extracts for logging.
var allContextKeys = []contextKey{
	ContextKeyCallID,
	ContextKeyStreamID,
	ContextKeyComponent,
	ContextKeyCorrelationID,
}

// WithCallID returns a new context with the call ID set.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, ContextKeyCallID, callID)
}

// WithStreamID returns a new context with the stream ID set.
func WithStreamID(ctx context.Context, streamID string) context.Context {
	return context.WithValue(ctx, ContextKeyStreamID, streamID)
}

// WithComponent returns a new context with the component name set.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ContextKeyComponent, component)
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// LoggingFields holds the standard logging context fields for a session.
type LoggingFields struct {
	CallID        string
	StreamID      string
	Component     string
	CorrelationID string
}

// WithLoggingContext sets multiple logging fields at once. Only non-empty
// values are set.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.CallID != "" {
		ctx = WithCallID(ctx, fields.CallID)
	}
	if fields.StreamID != "" {
		ctx = WithStreamID(ctx, fields.StreamID)
	}
	if fields.Component != "" {
		ctx = WithComponent(ctx, fields.Component)
	}
	if fields.CorrelationID != "" {
		ctx = WithCorrelationID(ctx, fields.CorrelationID)
	}
	return ctx
}

// ExtractLoggingFields extracts all logging fields found in ctx.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	fields := LoggingFields{}
	if v := ctx.Value(ContextKeyCallID); v != nil {
		fields.CallID, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyStreamID); v != nil {
		fields.StreamID, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyComponent); v != nil {
		fields.Component, _ = v.(string)
	}
	if v := ctx.Value(ContextKeyCorrelationID); v != nil {
		fields.CorrelationID, _ = v.(string)
	}
	return fields
}
