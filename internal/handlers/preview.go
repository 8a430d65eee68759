package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apierrors "github.com/big-blue22/keizibann/internal/errors"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/preview"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetPreview returns the link card for ?url=
// GET /api/v1/preview
func (h *Handlers) GetPreview(c *gin.Context) {
	target := c.Query("url")
	if strings.TrimSpace(target) == "" {
		util.RespondValidationError(c, "url", "url query parameter is required")
		return
	}
	if h.previewer == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("preview"))
		return
	}

	data, err := h.previewer.Generate(c.Request.Context(), target)
	if err != nil {
		h.respondPreviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetTitle returns the page <title> for ?url=
// GET /api/v1/title
func (h *Handlers) GetTitle(c *gin.Context) {
	target := c.Query("url")
	if strings.TrimSpace(target) == "" {
		util.RespondValidationError(c, "url", "url query parameter is required")
		return
	}
	if h.previewer == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("preview"))
		return
	}

	title, err := h.previewer.FetchTitle(c.Request.Context(), target)
	if err != nil {
		h.respondPreviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

func (h *Handlers) respondPreviewError(c *gin.Context, err error) {
	if errors.Is(err, preview.ErrInvalidURL) {
		util.RespondValidationError(c, "url", "url is invalid or not allowed")
		return
	}
	util.RespondWithAPIError(c, apierrors.Upstream("preview").WithDetails(err.Error()))
}

type shareRequest struct {
	Title string `json:"title" form:"title"`
	Text  string `json:"text" form:"text"`
	URL   string `json:"url" form:"url"`
}

// ShareTarget receives Web Share Target submissions and hands them to the page as query params.
// It always answers 303 so the browser lands on the board even when the payload is unusable.
// POST /share-target
func (h *Handlers) ShareTarget(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Log.Debug("Unreadable share payload", zap.Error(err))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	files := 0
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = len(form.File["shared_files"])
	}

	params := url.Values{}
	if req.Title != "" {
		params.Set("shared_title", req.Title)
	}
	if req.Text != "" {
		params.Set("shared_text", req.Text)
	}
	if req.URL != "" {
		params.Set("shared_url", req.URL)
	}
	if files > 0 {
		params.Set("shared_files_count", strconv.Itoa(files))
	}
	if len(params) == 0 {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	params.Set("shared", "true")

	c.Redirect(http.StatusSeeOther, "/?"+params.Encode())
}
