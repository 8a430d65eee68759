package views

import (
	"time"

	"github.com/big-blue22/keizibann/internal/models"
)

// RetentionDays is how many days before today still count as recent.
// Keys older than today-RetentionDays are pruned, so RetentionDays+1 calendar days are kept.
const RetentionDays = 3

const dayLayout = "2006-01-02"

// TodayKey returns the UTC calendar date of now
func TodayKey(now time.Time) string {
	return now.UTC().Format(dayLayout)
}

func cutoffKey(now time.Time) string {
	return TodayKey(now.AddDate(0, 0, -RetentionDays))
}

// RecordView returns a copy of daily with today's count incremented and old days pruned
func RecordView(daily map[string]int64, now time.Time) map[string]int64 {
	next := make(map[string]int64, len(daily)+1)
	for k, v := range daily {
		next[k] = v
	}
	next[TodayKey(now)]++
	return prune(next, now)
}

// Prune returns a copy of daily without days before the cutoff or keys that are not dates
func Prune(daily map[string]int64, now time.Time) map[string]int64 {
	next := make(map[string]int64, len(daily))
	for k, v := range daily {
		next[k] = v
	}
	return prune(next, now)
}

func prune(daily map[string]int64, now time.Time) map[string]int64 {
	cutoff := cutoffKey(now)
	for k := range daily {
		if _, err := time.Parse(dayLayout, k); err != nil {
			delete(daily, k)
			continue
		}
		// zero-padded ISO dates order lexicographically
		if k < cutoff {
			delete(daily, k)
		}
	}
	return daily
}

// Sum adds up every day in the window
func Sum(daily map[string]int64) int64 {
	var total int64
	for _, v := range daily {
		total += v
	}
	return total
}

// Normalize prunes the post's window against now and recomputes RecentViewCount.
// Used when reading so stale windows are not reported.
func Normalize(post *models.Post, now time.Time) {
	post.DailyViews = Prune(post.DailyViews, now)
	post.RecentViewCount = Sum(post.DailyViews)
}
