package middleware

import (
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware wraps otelgin and adds board-specific span attributes
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if postID := c.Param("id"); postID != "" {
			span.SetAttributes(attribute.String("post.id", postID))
		}
		if sortBy := c.Query("sortBy"); sortBy != "" {
			span.SetAttributes(attribute.String("feed.sort_by", sortBy))
		}
		if requestID := c.GetString(ContextKeyRequestID); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		span.SetAttributes(attribute.Bool("auth.admin", util.IsAdmin(c)))

		for _, ginErr := range c.Errors {
			if ginErr.Err != nil {
				span.RecordError(ginErr.Err)
				span.SetStatus(codes.Error, ginErr.Error())
			}
		}
	}
}
