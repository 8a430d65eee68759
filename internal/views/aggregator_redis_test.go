package views

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPoolSize = 4

// setupRedisAggregator wires the aggregator to RedisStore and RedisThrottle sharing one
// small connection pool, the way cmd/server does
func setupRedisAggregator(t *testing.T, now time.Time) (*Aggregator, *storage.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: testPoolSize})
	t.Cleanup(func() { _ = client.Close() })

	rc := cache.WrapClient(client)
	store := storage.NewRedisStore(rc)
	agg := NewAggregator(store, NewRedisThrottle(rc), WithClock(func() time.Time { return now }))
	return agg, store, mr
}

func TestRedisAggregatorThrottlesDuplicate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	agg, store, _ := setupRedisAggregator(t, now)
	require.NoError(t, store.CreatePost(ctx, subject("p1", 0, nil)))

	first, err := agg.RecordView(ctx, "p1", "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalViewCount)

	_, err = agg.RecordView(ctx, "p1", "fp")
	assert.ErrorIs(t, err, ErrThrottled)

	stored, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TotalViewCount)
	assert.Equal(t, map[string]int64{"2025-07-03": 1}, stored.DailyViews)
}

func TestRedisAggregatorIndependentFingerprints(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	agg, store, _ := setupRedisAggregator(t, now)
	require.NoError(t, store.CreatePost(ctx, subject("p1", 0, nil)))

	_, err := agg.RecordView(ctx, "p1", "fp-a")
	require.NoError(t, err)
	res, err := agg.RecordView(ctx, "p1", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalViewCount)
	assert.Equal(t, int64(2), res.RecentViewCount)
}

func TestRedisAggregatorNotFoundLeavesNoThrottleKey(t *testing.T) {
	ctx := context.Background()
	agg, _, mr := setupRedisAggregator(t, time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC))

	_, err := agg.RecordView(ctx, "missing", "fp")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("view_throttle:missing:fp"))
	assert.False(t, mr.Exists("posts"))
}

func TestRedisAggregatorConcurrentViewsBeyondPoolSize(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	agg, store, _ := setupRedisAggregator(t, now)

	const views = testPoolSize * 4
	for i := 0; i < views; i++ {
		require.NoError(t, store.CreatePost(ctx, subject(fmt.Sprintf("p%d", i), 0, nil)))
	}
	require.NoError(t, store.CreatePost(ctx, subject("shared", 0, nil)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(id, fp string) {
		defer wg.Done()
		if _, err := agg.RecordView(ctx, id, fp); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	for i := 0; i < views; i++ {
		wg.Add(2)
		go record(fmt.Sprintf("p%d", i), "fp")
		go record("shared", fmt.Sprintf("fp-%d", i))
	}
	wg.Wait()

	assert.Empty(t, errs)

	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	for _, p := range posts {
		if p.ID == "shared" {
			assert.Equal(t, int64(views), p.TotalViewCount)
			continue
		}
		assert.Equal(t, int64(1), p.TotalViewCount, p.ID)
	}
}
