package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig holds configuration for an instrumented HTTP client
type HTTPClientConfig struct {
	ServiceName  string            // Name of the remote side, used as the span name prefix
	Timeout      time.Duration     // Request timeout
	Base         http.RoundTripper // Underlying transport; http.DefaultTransport when nil
	MaxRedirects int               // 0 keeps the net/http default of 10
}

// NewInstrumentedHTTPClient creates an HTTP client whose requests are traced
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if cfg.ServiceName != "" {
					return cfg.ServiceName + " " + r.Method
				}
				return "HTTP " + r.Method
			}),
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	if cfg.MaxRedirects > 0 {
		limit := cfg.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return errors.New("stopped after too many redirects")
			}
			return nil
		}
	}

	return client
}

// ExternalServiceCallAttrs holds attributes for external service calls
type ExternalServiceCallAttrs struct {
	Service    string // gemini, preview
	Operation  string // labels, refine, fetch, title
	ResourceID string // optional; post id or target host
	Model      string // optional; the model that served the call
}

// TraceExternalCall creates a span for an external service call with standard attributes
func TraceExternalCall(ctx context.Context, attrs ExternalServiceCallAttrs) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("external-api").Start(ctx, attrs.Service+"."+attrs.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("external.service", attrs.Service),
			attribute.String("external.operation", attrs.Operation),
		),
	)
	if attrs.ResourceID != "" {
		span.SetAttributes(attribute.String("external.resource_id", attrs.ResourceID))
	}
	if attrs.Model != "" {
		span.SetAttributes(attribute.String("external.model", attrs.Model))
	}
	return ctx, span
}

// EndExternalCall records the outcome of a call started with TraceExternalCall and ends the span
func EndExternalCall(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
