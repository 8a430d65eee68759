// Package feed builds the post listing: comment counts attached, view windows
// normalized against the current day, then sorted.
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/big-blue22/keizibann/internal/telemetry"
	"github.com/big-blue22/keizibann/internal/views"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SortBy selects the feed order
type SortBy string

const (
	SortRecent        SortBy = "recent"
	SortPopular       SortBy = "popular"
	SortRecentPopular SortBy = "recent_popular"
)

// ParseSort maps a query value to a SortBy; anything unknown is SortRecent
func ParseSort(raw string) SortBy {
	switch SortBy(raw) {
	case SortPopular, SortRecentPopular:
		return SortBy(raw)
	default:
		return SortRecent
	}
}

// Service reads and orders the feed
type Service struct {
	store  storage.Store
	events *telemetry.BusinessEvents
	clock  func() time.Time
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: telemetry.NewBusinessEvents(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every readable post in the requested order.
// Windows are normalized on the returned copies only; nothing is written back.
func (s *Service) List(ctx context.Context, sortBy SortBy) ([]*models.Post, error) {
	ctx, span := s.events.TraceGetFeed(ctx, telemetry.FeedEventAttrs{
		SortBy:  string(sortBy),
		Backend: s.store.Name(),
	})
	defer span.End()

	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.clock().UTC()
	for _, post := range posts {
		count, err := s.store.CountComments(ctx, post.ID)
		if err != nil {
			logger.WarnWithFields("Failed to count comments", err, logger.WithPostID(post.ID))
			count = 0
		}
		post.CommentCount = count
		views.Normalize(post, now)
	}

	Sort(posts, sortBy)
	span.SetAttributes(attribute.Int("feed.item_count", len(posts)))
	return posts, nil
}

// Sort orders posts in place. Ties fall back to newest first.
func Sort(posts []*models.Post, sortBy SortBy) {
	newer := func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	}

	var less func(i, j int) bool
	switch sortBy {
	case SortPopular:
		less = func(i, j int) bool {
			if posts[i].TotalViewCount != posts[j].TotalViewCount {
				return posts[i].TotalViewCount > posts[j].TotalViewCount
			}
			return newer(i, j)
		}
	case SortRecentPopular:
		less = func(i, j int) bool {
			if posts[i].RecentViewCount != posts[j].RecentViewCount {
				return posts[i].RecentViewCount > posts[j].RecentViewCount
			}
			return newer(i, j)
		}
	default:
		less = newer
	}
	sort.SliceStable(posts, less)
}
