package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ContextKeyCorrelationID = "correlation_id"
	HeaderCorrelationID     = "X-Correlation-ID"
)

// CorrelationMiddleware propagates X-Correlation-ID, falling back to the request id.
// The id is put in trace baggage so background work started from the request keeps it.
// Must run after RequestIDMiddleware.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = c.GetString(ContextKeyRequestID)
		}
		if correlationID == "" {
			c.Next()
			return
		}

		c.Set(ContextKeyCorrelationID, correlationID)
		c.Header(HeaderCorrelationID, correlationID)

		ctx := c.Request.Context()
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}
		if member, err := baggage.NewMember(ContextKeyCorrelationID, correlationID); err == nil {
			if b, err := baggage.New(member); err == nil {
				ctx = baggage.ContextWithBaggage(ctx, b)
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SpanEnrichmentMiddleware sets the span status from the final HTTP status.
// Throttled views (429) and missing posts (404) are expected and left unset.
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
		case status == 404, status == 429:
			span.SetStatus(codes.Unset, "")
		case status >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}
		if size := c.Writer.Size(); size > 0 {
			span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(size)))
		}
		if xc := c.Writer.Header().Get("X-Cache"); xc != "" {
			span.SetAttributes(attribute.String("http.cache", xc))
		}
	}
}

// CorrelationIDFromContext returns the correlation id carried in baggage, if any
func CorrelationIDFromContext(ctx context.Context) string {
	return baggage.FromContext(ctx).Member(ContextKeyCorrelationID).Value()
}
