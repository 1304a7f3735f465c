package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType classifies a recorded error so traces can be filtered by the
// failing subsystem.
type ErrorType string

const (
	ErrorTypeHTTP          ErrorType = "http"
	ErrorTypeDB            ErrorType = "db"
	ErrorTypeRedis         ErrorType = "redis"
	ErrorTypeQueue         ErrorType = "queue"
	ErrorTypeObjectStorage ErrorType = "object_storage"
	ErrorTypeExtraction    ErrorType = "extraction"
	ErrorTypeAI            ErrorType = "ai"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeTimeout       ErrorType = "timeout"
)

// RecordError marks the span failed and tags it with the error class.
// Nil span or nil error is a no-op.
func RecordError(span trace.Span, err error, errorType ErrorType) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	span.SetStatus(codes.Error, err.Error())
}

// RecordErrorWithInfo is RecordError plus extra attributes for the case at
// hand (object keys, queue names, analysis ids).
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// RecordHTTPError records a request failure together with the response code
// bucketed into client or server error.
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)

	var category string
	switch {
	case statusCode >= 400 && statusCode < 500:
		category = "client_error"
	case statusCode >= 500:
		category = "server_error"
	default:
		category = "unknown"
	}
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeHTTP)),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", category),
	)
	span.SetStatus(codes.Error, err.Error())
}

// RecordQueueNack records a message the broker refused to acknowledge.
func RecordQueueNack(span trace.Span, messageID string, reason string) {
	if span == nil {
		return
	}
	errMsg := "message not acknowledged by broker"
	if reason != "" {
		errMsg = reason
	}
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeQueue)),
		attribute.String("error.message", errMsg),
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", "nack"),
		attribute.Bool("messaging.confirmed", false),
	)
	span.SetStatus(codes.Error, errMsg)
}

// RecordPublishTimeout records a publish whose broker confirm never arrived.
func RecordPublishTimeout(span trace.Span, messageID string, timeout string) {
	if span == nil {
		return
	}
	errMsg := "confirm timeout after " + timeout
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeQueue)),
		attribute.String("error.message", errMsg),
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", "timeout"),
		attribute.Bool("messaging.confirmed", false),
	)
	span.SetStatus(codes.Error, errMsg)
}
