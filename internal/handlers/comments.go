package handlers

import (
	"errors"
	"net/http"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
)

// GetComments lists a post's comments, newest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	comments, err := h.store.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, "comment", err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment adds a comment to an existing post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	content, err := util.ValidateCommentContent(req.Content)
	if err != nil {
		msg := "content is required"
		if errors.Is(err, util.ErrContentLength) {
			msg = "content must be 2000 characters or fewer"
		}
		util.RespondValidationError(c, "content", msg)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetPost(ctx, postID); err != nil {
		h.respondStoreError(c, "post", err)
		return
	}

	now := h.clock().UTC()
	comment := &models.Comment{
		ID:        models.NewCommentID(now),
		PostID:    postID,
		Content:   content,
		CreatedAt: now,
	}
	if err := h.store.AddComment(ctx, comment); err != nil {
		h.respondStoreError(c, "comment", err)
		return
	}

	logger.Log.Info("Comment created", logger.WithPostID(postID), logger.WithCommentID(comment.ID))
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// DeleteComment removes one comment
// DELETE /api/v1/posts/:id/comments/:commentId (admin)
func (h *Handlers) DeleteComment(c *gin.Context) {
	postID, commentID := c.Param("id"), c.Param("commentId")

	ctx, span := h.events.TraceAdminAction(c.Request.Context(), "delete_comment", commentID)
	defer span.End()

	if err := h.store.DeleteComment(ctx, postID, commentID); err != nil {
		h.respondStoreError(c, "comment", err)
		return
	}

	logger.Log.Info("Comment deleted", logger.WithPostID(postID), logger.WithCommentID(commentID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
