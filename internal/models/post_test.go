package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostID(t *testing.T) {
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "post_1752138000000", NewPostID(now))
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Post{
		ID:          "p1",
		Labels:      []string{"a"},
		DailyViews:  map[string]int64{"2025-07-10": 2},
		PreviewData: &PreviewData{Title: "t"},
	}
	cp := orig.Clone()
	require.NotNil(t, cp)

	cp.Labels[0] = "b"
	cp.DailyViews["2025-07-10"] = 9
	cp.PreviewData.Title = "changed"

	assert.Equal(t, "a", orig.Labels[0])
	assert.Equal(t, int64(2), orig.DailyViews["2025-07-10"])
	assert.Equal(t, "t", orig.PreviewData.Title)

	var nilPost *Post
	assert.Nil(t, nilPost.Clone())
}
