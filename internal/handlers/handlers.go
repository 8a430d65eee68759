package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/feed"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/big-blue22/keizibann/internal/telemetry"
	"github.com/big-blue22/keizibann/internal/views"
	"github.com/gin-gonic/gin"
)

// Labeler extracts labels from and rewrites post text. *ai.Client satisfies it.
type Labeler interface {
	Enabled() bool
	ExtractLabels(ctx context.Context, content string) ([]string, error)
	RefineContent(ctx context.Context, original string) (string, error)
}

// Previewer builds link cards. *preview.Fetcher satisfies it.
type Previewer interface {
	Generate(ctx context.Context, rawURL string) (*models.PreviewData, error)
	FetchTitle(ctx context.Context, rawURL string) (string, error)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	store      storage.Store
	feed       *feed.Service
	aggregator *views.Aggregator
	auth       auth.AdminAuthenticator
	labeler    Labeler
	previewer  Previewer
	events     *telemetry.BusinessEvents
	clock      func() time.Time
}

// NewHandlers creates a new handlers instance. AI and preview are optional and set afterwards.
func NewHandlers(store storage.Store, aggregator *views.Aggregator, authenticator auth.AdminAuthenticator) *Handlers {
	return &Handlers{
		store:      store,
		feed:       feed.NewService(store),
		aggregator: aggregator,
		auth:       authenticator,
		events:     telemetry.NewBusinessEvents(),
		clock:      time.Now,
	}
}

// SetLabeler sets the generative AI client
func (h *Handlers) SetLabeler(l Labeler) {
	h.labeler = l
}

// SetPreviewer sets the link preview fetcher
func (h *Handlers) SetPreviewer(p Previewer) {
	h.previewer = p
}

// SetClock replaces time.Now for new posts and comments
func (h *Handlers) SetClock(clock func() time.Time) {
	h.clock = clock
	h.feed = feed.NewService(h.store, feed.WithClock(clock))
}

func (h *Handlers) aiEnabled() bool {
	return h.labeler != nil && h.labeler.Enabled()
}

// Health reports liveness and the active store backend
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"store":     h.store.Name(),
		"ai":        h.aiEnabled(),
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
