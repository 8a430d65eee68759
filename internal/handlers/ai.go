package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/big-blue22/keizibann/internal/ai"
	apierrors "github.com/big-blue22/keizibann/internal/errors"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
)

// ExtractLabels returns the AI model names mentioned in the content
// POST /api/v1/ai/labels
func (h *Handlers) ExtractLabels(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		util.RespondValidationError(c, "content", "content is required")
		return
	}
	if !h.aiEnabled() {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("AI"))
		return
	}

	labels, err := h.labeler.ExtractLabels(c.Request.Context(), req.Content)
	if err != nil {
		h.respondAIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

// RefineContent rewrites a draft summary
// POST /api/v1/ai/refine
func (h *Handlers) RefineContent(c *gin.Context) {
	var req struct {
		OriginalContent string `json:"originalContent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OriginalContent) == "" {
		util.RespondValidationError(c, "originalContent", "originalContent is required")
		return
	}
	if !h.aiEnabled() {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("AI"))
		return
	}

	text, err := h.labeler.RefineContent(c.Request.Context(), req.OriginalContent)
	if err != nil {
		h.respondAIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refinedText": text})
}

func (h *Handlers) respondAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("AI"))
	case errors.Is(err, ai.ErrEmptyInput):
		util.RespondBadRequest(c, "nothing to analyze")
	default:
		logger.WarnWithFields("AI request failed", err)
		util.RespondWithAPIError(c, apierrors.Upstream("AI"))
	}
}
