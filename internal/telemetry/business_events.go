package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents traces board operations above the HTTP layer
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a new business events tracer
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("business-events"),
	}
}

// FeedEventAttrs describes one feed read
type FeedEventAttrs struct {
	SortBy       string // recent, popular, recent_popular
	ItemCount    int
	Backend      string
	FallbackUsed bool
}

// TraceGetFeed creates a span for reading and sorting the feed
func (be *BusinessEvents) TraceGetFeed(ctx context.Context, attrs FeedEventAttrs) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "feed.get",
		trace.WithAttributes(
			attribute.String("feed.sort_by", attrs.SortBy),
			attribute.String("feed.backend", attrs.Backend),
		),
	)
	if attrs.FallbackUsed {
		span.SetAttributes(attribute.Bool("feed.fallback_used", true))
	}
	return ctx, span
}

// TraceCreatePost creates a span covering labeling, preview and persistence of a new post
func (be *BusinessEvents) TraceCreatePost(ctx context.Context, postID, url string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "post.create",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.String("post.url", url),
		),
	)
}

// TraceRecordView creates a span for one view event
func (be *BusinessEvents) TraceRecordView(ctx context.Context, postID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "post.record_view",
		trace.WithAttributes(attribute.String("post.id", postID)),
	)
}

// EndViewSpan tags the view outcome (accepted, throttled, not_found, error) and ends the span
func EndViewSpan(span trace.Span, result string, err error) {
	span.SetAttributes(attribute.String("view.result", result))
	if err != nil && result == "error" {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}

// TraceAdminAction creates a span for a privileged mutation
func (be *BusinessEvents) TraceAdminAction(ctx context.Context, action, targetID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "admin."+action,
		trace.WithAttributes(attribute.String("admin.target_id", targetID)),
	)
}
