package storage

import (
	"testing"
	"time"

	"github.com/big-blue22/keizibann/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePostCanonical(t *testing.T) {
	raw := `{"id":"p1","url":"https://example.com/a","title":"A","summary":"s","labels":["GPT-4"],
		"createdAt":"2025-07-01T10:00:00Z","totalViewCount":10,
		"dailyViews":{"2025-07-01":2,"2025-07-02":3},"recentViewCount":99,"commentCount":1}`

	post, err := decodePost([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, int64(10), post.TotalViewCount)
	assert.Equal(t, map[string]int64{"2025-07-01": 2, "2025-07-02": 3}, post.DailyViews)
	assert.Equal(t, int64(5), post.RecentViewCount, "recentViewCount is recomputed from dailyViews")
	assert.Equal(t, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC), post.CreatedAt)
	assert.Equal(t, []string{"GPT-4"}, post.Labels)
	assert.Zero(t, post.CommentCount, "commentCount is derived from the comment list, not stored")
}

func TestEncodePostOmitsCommentCount(t *testing.T) {
	post := &models.Post{ID: "p1", CommentCount: 4, CreatedAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}

	encoded, err := encodePost(post)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "commentCount")
	assert.Contains(t, encoded, `"dailyViews":{}`)
	assert.Contains(t, encoded, `"labels":[]`)

	decoded, err := decodePost([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, "p1", decoded.ID)
	assert.Equal(t, post.CreatedAt, decoded.CreatedAt)
}

func TestDecodePostLegacyFields(t *testing.T) {
	raw := `{"id":"p2","content":"old body","viewCount":7,"recentViews":{"2025-01-03":4,"2025-01-04":0}}`

	post, err := decodePost([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, int64(7), post.TotalViewCount)
	assert.Equal(t, map[string]int64{"2025-01-03": 4}, post.DailyViews, "non-positive counts are dropped")
	assert.Equal(t, int64(4), post.RecentViewCount)
	assert.Equal(t, "old body", post.Summary)
	assert.NotNil(t, post.Labels)
}

func TestDecodePostDoubleEncoded(t *testing.T) {
	raw := `"{\"id\":\"p3\",\"text\":\"hello\"}"`

	post, err := decodePost([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "p3", post.ID)
	assert.Equal(t, "hello", post.Summary)
	assert.NotNil(t, post.DailyViews)
}

func TestDecodePostMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":    `{"id":`,
		"missing id":  `{"url":"https://example.com"}`,
		"bad string":  `"{\"id\"`,
		"wrong shape": `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodePost([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestEncodePostWritesCanonicalShape(t *testing.T) {
	post, err := decodePost([]byte(`{"id":"p4","viewCount":3,"recentViews":{"2025-01-03":1}}`))
	require.NoError(t, err)

	encoded, err := encodePost(post)
	require.NoError(t, err)

	assert.Contains(t, encoded, `"totalViewCount":3`)
	assert.Contains(t, encoded, `"dailyViews":{"2025-01-03":1}`)
	assert.NotContains(t, encoded, `"viewCount"`)
	assert.NotContains(t, encoded, `"recentViews"`)
	assert.Contains(t, encoded, `"labels":[]`)
}

func TestDecodeComment(t *testing.T) {
	c, err := decodeComment([]byte(`{"id":"comment_1","postId":"p1","content":"hi","createdAt":"2025-07-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", c.PostID)

	_, err = decodeComment([]byte(`{"content":"no id"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
