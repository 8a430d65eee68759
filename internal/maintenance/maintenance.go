// Package maintenance holds the store-level jobs run from the admin CLI.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/big-blue22/keizibann/internal/views"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// Report summarizes one maintenance run
type Report struct {
	Scanned    int `json:"scanned"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	PrunedDays int `json:"prunedDays,omitempty"`
}

var errSkip = errors.New("nothing to change")

// RecomputeViews prunes every post's daily window and persists the recomputed recentViewCount
func RecomputeViews(ctx context.Context, store storage.PostStore, now time.Time) (*Report, error) {
	posts, err := store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	report := &Report{Scanned: len(posts)}
	for _, p := range posts {
		pruned := 0
		_, err := store.UpdatePost(ctx, p.ID, func(post *models.Post) error {
			before := len(post.DailyViews)
			views.Normalize(post, now)
			pruned = before - len(post.DailyViews)
			return nil
		})
		if err != nil {
			report.Failed++
			logger.WarnWithFields("Recompute failed", err, logger.WithPostID(p.ID))
			continue
		}
		report.Updated++
		report.PrunedDays += pruned
	}

	logger.Log.Info("Recomputed view windows",
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("pruned_days", report.PrunedDays),
	)
	return report, nil
}

// PreviewGenerator builds link cards
type PreviewGenerator interface {
	Generate(ctx context.Context, rawURL string) (*models.PreviewData, error)
}

// BackfillPreviews generates preview data for posts that have a URL but no card.
// limit <= 0 means no limit.
func BackfillPreviews(ctx context.Context, store storage.PostStore, gen PreviewGenerator, limit int) (*Report, error) {
	posts, err := store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	report := &Report{}
	for _, p := range posts {
		if p.PreviewData != nil || p.URL == "" {
			continue
		}
		if limit > 0 && report.Scanned >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		data, err := gen.Generate(ctx, p.URL)
		if err != nil {
			report.Failed++
			logger.WarnWithFields("Preview backfill failed", err, logger.WithPostID(p.ID), logger.WithURL(p.URL))
			continue
		}

		_, err = store.UpdatePost(ctx, p.ID, func(post *models.Post) error {
			if post.PreviewData != nil {
				return errSkip
			}
			post.PreviewData = data
			return nil
		})
		switch {
		case err == nil:
			report.Updated++
		case errors.Is(err, errSkip):
		default:
			report.Failed++
			logger.WarnWithFields("Preview backfill write failed", err, logger.WithPostID(p.ID))
		}
	}
	return report, nil
}

// demoURLs have canned previews, so seeded posts never hit the network
var demoURLs = []string{
	"https://example.com/ai-trends",
	"https://example.com/react-tips",
	"https://example.com/database-design",
	"https://example.com/ml-basics",
	"https://example.com/web-performance",
}

var demoLabels = []string{"GPT-4", "GPT-4o", "Claude 3", "Claude 3.5 Sonnet", "Gemini 1.5 Pro", "Llama 3", "Mistral Large"}

// SeedPosts inserts n demo posts created within the week before now, with view
// counts spread over the current window. Posts are inserted oldest first so the
// list stays newest first.
func SeedPosts(ctx context.Context, store storage.PostStore, n int, now time.Time) ([]*models.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	now = now.UTC()

	posts := make([]*models.Post, 0, n)
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		createdAt := gofakeit.DateRange(now.AddDate(0, 0, -7), now).UTC().Truncate(time.Millisecond)
		id := models.NewPostID(createdAt)
		for seen[id] {
			createdAt = createdAt.Add(-time.Millisecond)
			id = models.NewPostID(createdAt)
		}
		seen[id] = true

		daily := map[string]int64{}
		for d := 0; d <= views.RetentionDays; d++ {
			day := now.AddDate(0, 0, -d)
			if day.Before(createdAt.Truncate(24 * time.Hour)) {
				break
			}
			if v := int64(gofakeit.Number(0, 40)); v > 0 {
				daily[views.TodayKey(day)] = v
			}
		}
		recent := views.Sum(daily)

		labels := []string{gofakeit.RandomString(demoLabels)}
		if gofakeit.Bool() {
			if second := gofakeit.RandomString(demoLabels); second != labels[0] {
				labels = append(labels, second)
			}
		}

		posts = append(posts, &models.Post{
			ID:              id,
			URL:             gofakeit.RandomString(demoURLs),
			Title:           gofakeit.HipsterSentence(),
			Summary:         gofakeit.HipsterSentence() + " " + gofakeit.HipsterSentence(),
			Labels:          labels,
			CreatedAt:       createdAt,
			DailyViews:      daily,
			RecentViewCount: recent,
			TotalViewCount:  recent + int64(gofakeit.Number(0, 200)),
		})
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.Before(posts[j].CreatedAt) })

	for i, p := range posts {
		if err := store.CreatePost(ctx, p); err != nil {
			return posts[:i], fmt.Errorf("create %s: %w", p.ID, err)
		}
	}
	logger.Log.Info("Seeded demo posts", zap.Int("count", len(posts)))
	return posts, nil
}

// SnapshotUploader stores a snapshot somewhere durable
type SnapshotUploader interface {
	UploadSnapshot(ctx context.Context, snap *storage.Snapshot) (*storage.UploadResult, error)
}

// Backup copies every post and comment to the uploader
func Backup(ctx context.Context, store storage.Store, uploader SnapshotUploader, now time.Time) (*storage.UploadResult, error) {
	snap, err := storage.TakeSnapshot(ctx, store, now)
	if err != nil {
		return nil, err
	}
	res, err := uploader.UploadSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Snapshot uploaded",
		zap.String("key", res.Key),
		zap.Int("posts", res.Posts),
		zap.Int("comments", res.Comments),
	)
	return res, nil
}
