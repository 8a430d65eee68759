package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	apierrors "github.com/big-blue22/keizibann/internal/errors"
	"github.com/big-blue22/keizibann/internal/feed"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/preview"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/big-blue22/keizibann/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetPosts returns the feed as a bare JSON array
// GET /api/v1/posts?sortBy=recent|popular|recent_popular&limit=N
func (h *Handlers) GetPosts(c *gin.Context) {
	sortBy := feed.ParseSort(c.Query("sortBy"))
	limit := util.ParseInt(c.Query("limit"), 0)

	posts, err := h.feed.List(c.Request.Context(), sortBy)
	if err != nil {
		// the board stays readable when storage is down
		logger.ErrorWithFields("Failed to load feed", err, zap.String("sort_by", string(sortBy)))
		c.JSON(http.StatusOK, []*models.Post{})
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post without recording a view. The window is pruned
// against now the same way the feed does it.
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, "post", err)
		return
	}
	views.Normalize(post, h.clock())
	if n, err := h.store.CountComments(c.Request.Context(), post.ID); err == nil {
		post.CommentCount = n
	}
	c.JSON(http.StatusOK, post)
}

type createPostRequest struct {
	URL             string `json:"url"`
	Summary         string `json:"summary"`
	OriginalContent string `json:"originalContent"`
	Title           string `json:"title"`
}

// CreatePost labels, previews and stores a new post at the head of the list
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	target, err := util.ValidateHTTPURL(req.URL)
	if err != nil {
		util.RespondValidationError(c, "url", err.Error())
		return
	}
	summary := strings.TrimSpace(req.Summary)
	if summary == "" {
		util.RespondValidationError(c, "summary", "summary is required")
		return
	}

	now := h.clock().UTC()
	post := &models.Post{
		ID:         models.NewPostID(now),
		URL:        target.String(),
		Title:      strings.TrimSpace(req.Title),
		Summary:    summary,
		Labels:     []string{},
		CreatedAt:  now,
		DailyViews: map[string]int64{},
	}

	ctx, span := h.events.TraceCreatePost(c.Request.Context(), post.ID, post.URL)
	defer span.End()

	if h.aiEnabled() {
		source := strings.TrimSpace(req.OriginalContent)
		if source == "" {
			source = summary
		}
		labels, err := h.labeler.ExtractLabels(ctx, source)
		if err != nil {
			logger.WarnWithFields("Label extraction failed, posting without labels", err, logger.WithPostID(post.ID))
		} else {
			post.Labels = labels
		}
	}

	if h.previewer != nil {
		if post.Title == "" {
			title, err := h.previewer.FetchTitle(ctx, post.URL)
			if err != nil {
				logger.WarnWithFields("Title fetch failed", err, logger.WithPostID(post.ID), logger.WithURL(post.URL))
			}
			post.Title = title
		}
		data, err := h.previewer.Generate(ctx, post.URL)
		if err != nil {
			logger.WarnWithFields("Preview generation failed", err, logger.WithPostID(post.ID), logger.WithURL(post.URL))
		} else {
			post.PreviewData = data
		}
	}

	if err := h.store.CreatePost(ctx, post); err != nil {
		span.RecordError(err)
		h.respondStoreError(c, "post", err)
		return
	}

	logger.Log.Info("Post created",
		logger.WithPostID(post.ID),
		zap.Int("labels", len(post.Labels)),
		zap.Bool("preview", post.PreviewData != nil),
	)
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

// DeletePost removes a post and its comments
// DELETE /api/v1/posts/:id (admin)
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	ctx, span := h.events.TraceAdminAction(c.Request.Context(), "delete_post", postID)
	defer span.End()

	if err := h.store.DeletePost(ctx, postID); err != nil {
		h.respondStoreError(c, "post", err)
		return
	}

	logger.Log.Info("Post deleted", logger.WithPostID(postID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegeneratePreview fetches the link card again, optionally for a new URL
// PUT /api/v1/posts/:id/preview (admin)
func (h *Handlers) RegeneratePreview(c *gin.Context) {
	postID := c.Param("id")

	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if h.previewer == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("preview"))
		return
	}

	ctx, span := h.events.TraceAdminAction(c.Request.Context(), "regenerate_preview", postID)
	defer span.End()

	post, err := h.store.GetPost(ctx, postID)
	if err != nil {
		h.respondStoreError(c, "post", err)
		return
	}

	target := strings.TrimSpace(req.URL)
	if target == "" {
		target = post.URL
	}

	data, err := h.previewer.Generate(ctx, target)
	if err != nil {
		if errors.Is(err, preview.ErrInvalidURL) {
			util.RespondValidationError(c, "url", err.Error())
			return
		}
		logger.WarnWithFields("Preview regeneration failed", err, logger.WithPostID(postID), logger.WithURL(target))
		util.RespondWithAPIError(c, apierrors.Upstream("preview"))
		return
	}

	if _, err := h.store.UpdatePost(ctx, postID, func(p *models.Post) error {
		p.PreviewData = data
		return nil
	}); err != nil {
		h.respondStoreError(c, "post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "previewData": data})
}

// respondStoreError maps storage errors onto API errors
func (h *Handlers) respondStoreError(c *gin.Context, resource string, err error) {
	switch {
	case errors.Is(err, storage.ErrPostNotFound):
		util.RespondNotFound(c, "post")
	case errors.Is(err, storage.ErrCommentNotFound):
		util.RespondNotFound(c, "comment")
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, storage.ErrConflict):
		logger.ErrorWithFields("Store unavailable", err, zap.String("resource", resource))
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("storage"))
	default:
		logger.ErrorWithFields("Store operation failed", err, zap.String("resource", resource))
		util.RespondInternalError(c, "")
	}
}
