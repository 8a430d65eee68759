package handlers

import (
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/big-blue22/keizibann/internal/errors"
	"github.com/big-blue22/keizibann/internal/telemetry"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/big-blue22/keizibann/internal/views"
	"github.com/gin-gonic/gin"
)

// RecordView counts a view of the post by the requesting client
// POST /api/v1/posts/:id/view
func (h *Handlers) RecordView(c *gin.Context) {
	h.recordView(c, c.Param("id"))
}

// RecordViewLegacy accepts the older body-addressed form
// POST /api/v1/views {"postId": "..."}
func (h *Handlers) RecordViewLegacy(c *gin.Context) {
	var req struct {
		PostID string `json:"postId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PostID) == "" {
		util.RespondValidationError(c, "postId", "postId is required")
		return
	}
	h.recordView(c, strings.TrimSpace(req.PostID))
}

func (h *Handlers) recordView(c *gin.Context, postID string) {
	fingerprint := views.Fingerprint(util.ClientIP(c), c.Request.UserAgent())

	ctx, span := h.events.TraceRecordView(c.Request.Context(), postID)
	result, err := h.aggregator.RecordView(ctx, postID, fingerprint)

	switch {
	case err == nil:
		telemetry.EndViewSpan(span, "accepted", nil)
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"totalViewCount":  result.TotalViewCount,
			"recentViewCount": result.RecentViewCount,
			"dailyViews":      result.DailyViews,
		})
	case errors.Is(err, views.ErrNotFound):
		telemetry.EndViewSpan(span, "not_found", err)
		util.RespondNotFound(c, "post")
	case errors.Is(err, views.ErrThrottled):
		telemetry.EndViewSpan(span, "throttled", err)
		util.RespondWithAPIError(c, apierrors.Throttled(views.Cooldown))
	default:
		telemetry.EndViewSpan(span, "error", err)
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("view store"))
	}
}
