package views

import (
	"testing"
	"time"

	"github.com/big-blue22/keizibann/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTodayKeyUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2025-07-04 01:00 in Tokyo is still 2025-07-03 in UTC
	now := time.Date(2025, 7, 4, 1, 0, 0, 0, tokyo)
	assert.Equal(t, "2025-07-03", TodayKey(now))
}

func TestRecordViewPrunesOldDays(t *testing.T) {
	daily := map[string]int64{"2025-01-01": 5, "2025-01-03": 2}
	now := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	next := RecordView(daily, now)

	assert.Equal(t, map[string]int64{"2025-01-03": 2, "2025-01-05": 1}, next)
	assert.Equal(t, int64(3), Sum(next))
	assert.Equal(t, map[string]int64{"2025-01-01": 5, "2025-01-03": 2}, daily, "input is not mutated")
}

func TestRecordViewKeepsCutoffDay(t *testing.T) {
	now := time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)
	daily := map[string]int64{"2025-01-01": 1, "2025-01-02": 1, "2025-01-04": 1}

	next := RecordView(daily, now)

	assert.NotContains(t, next, "2025-01-01")
	assert.Contains(t, next, "2025-01-02")
	assert.Equal(t, int64(1), next["2025-01-05"])
}

func TestRecordViewIncrementsToday(t *testing.T) {
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	next := RecordView(map[string]int64{"2025-07-03": 4}, now)
	assert.Equal(t, int64(5), next["2025-07-03"])

	fromNil := RecordView(nil, now)
	assert.Equal(t, map[string]int64{"2025-07-03": 1}, fromNil)
}

func TestPruneDropsMalformedKeys(t *testing.T) {
	now := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	daily := map[string]int64{"2025-01-04": 1, "yesterday": 7, "2025-1-4": 2, "": 1}

	assert.Equal(t, map[string]int64{"2025-01-04": 1}, Prune(daily, now))
}

func TestPruneIsIdempotent(t *testing.T) {
	now := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	daily := map[string]int64{"2024-12-30": 3, "2025-01-02": 1, "2025-01-05": 2}

	once := Prune(daily, now)
	twice := Prune(once, now)
	assert.Equal(t, once, twice)
}

func TestSum(t *testing.T) {
	assert.Zero(t, Sum(nil))
	assert.Zero(t, Sum(map[string]int64{}))
	assert.Equal(t, int64(6), Sum(map[string]int64{"a": 1, "b": 2, "c": 3}))
}

func TestNormalize(t *testing.T) {
	post := &models.Post{
		ID:              "p1",
		DailyViews:      map[string]int64{"2025-01-01": 5, "2025-01-04": 2},
		RecentViewCount: 7,
	}
	Normalize(post, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, map[string]int64{"2025-01-04": 2}, post.DailyViews)
	assert.Equal(t, int64(2), post.RecentViewCount)
}
