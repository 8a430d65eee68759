package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("subject not found")
	ErrThrottled        = errors.New("view throttled")
	ErrStoreUnavailable = errors.New("view store unavailable")
)

// DefaultStoreTimeout bounds each store round trip made while recording a view
const DefaultStoreTimeout = 3 * time.Second

// Result carries the counters after an accepted view
type Result struct {
	TotalViewCount  int64            `json:"totalViewCount"`
	RecentViewCount int64            `json:"recentViewCount"`
	DailyViews      map[string]int64 `json:"dailyViews"`
}

// Aggregator records view events against posts
type Aggregator struct {
	store        storage.PostStore
	throttle     Throttle
	clock        func() time.Time
	storeTimeout time.Duration
}

type Option func(*Aggregator)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) { a.clock = clock }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.storeTimeout = d
		}
	}
}

func NewAggregator(store storage.PostStore, throttle Throttle, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:        store,
		throttle:     throttle,
		clock:        time.Now,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordView counts one view of subjectID by fingerprint.
//
// The subject is located before the throttle is consulted, so a missing subject never
// touches the throttle, and a throttled view never writes. The throttle is never
// called from inside the store update. Throttle failures let the view through.
func (a *Aggregator) RecordView(ctx context.Context, subjectID, fingerprint string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	now := a.clock().UTC()

	if _, err := a.store.GetPost(ctx, subjectID); err != nil {
		return nil, a.classify(subjectID, err)
	}

	throttled, err := a.throttle.IsThrottled(ctx, subjectID, fingerprint, now)
	if err != nil {
		metrics.Get().ThrottleErrorsTotal.WithLabelValues("check").Inc()
		logger.WarnWithFields("Throttle check failed, allowing view", err,
			logger.WithPostID(subjectID),
			logger.WithFingerprint(fingerprint),
		)
	} else if throttled {
		return nil, a.classify(subjectID, ErrThrottled)
	}

	updated, err := a.store.UpdatePost(ctx, subjectID, func(post *models.Post) error {
		post.TotalViewCount++
		post.DailyViews = RecordView(post.DailyViews, now)
		post.RecentViewCount = Sum(post.DailyViews)
		return nil
	})
	if err != nil {
		return nil, a.classify(subjectID, err)
	}

	if err := a.throttle.RecordAccepted(ctx, subjectID, fingerprint, now); err != nil {
		metrics.Get().ThrottleErrorsTotal.WithLabelValues("record").Inc()
		logger.WarnWithFields("Failed to record throttle entry", err,
			logger.WithPostID(subjectID),
			logger.WithFingerprint(fingerprint),
		)
	}

	metrics.Get().ViewsTotal.WithLabelValues("accepted").Inc()
	logger.Log.Debug("View recorded",
		logger.WithPostID(subjectID),
		zap.Int64("total", updated.TotalViewCount),
		zap.Int64("recent", updated.RecentViewCount),
	)

	return &Result{
		TotalViewCount:  updated.TotalViewCount,
		RecentViewCount: updated.RecentViewCount,
		DailyViews:      updated.DailyViews,
	}, nil
}

func (a *Aggregator) classify(subjectID string, err error) error {
	switch {
	case errors.Is(err, ErrThrottled):
		metrics.Get().ViewsTotal.WithLabelValues("throttled").Inc()
		return ErrThrottled
	case errors.Is(err, storage.ErrPostNotFound):
		metrics.Get().ViewsTotal.WithLabelValues("not_found").Inc()
		return ErrNotFound
	default:
		metrics.Get().ViewsTotal.WithLabelValues("error").Inc()
		logger.ErrorWithFields("Failed to persist view", err, logger.WithPostID(subjectID))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
