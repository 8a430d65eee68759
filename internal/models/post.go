package models

import (
	"fmt"
	"time"
)

// Post is a submitted link with its view counters.
// DailyViews maps a UTC calendar date (YYYY-MM-DD) to the views accepted that day and
// RecentViewCount is always the sum of its values.
type Post struct {
	ID              string           `json:"id"`
	URL             string           `json:"url,omitempty"`
	Title           string           `json:"title,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Labels          []string         `json:"labels"`
	CreatedAt       time.Time        `json:"createdAt"`
	TotalViewCount  int64            `json:"totalViewCount"`
	DailyViews      map[string]int64 `json:"dailyViews"`
	RecentViewCount int64            `json:"recentViewCount"`
	CommentCount    int              `json:"commentCount"`
	PreviewData     *PreviewData     `json:"previewData,omitempty"`
}

// PreviewData is the link card rendered under a post
type PreviewData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName"`
	URL         string `json:"url"`
}

// NewPostID returns an id in the post_<unix-ms> form used by stored records
func NewPostID(now time.Time) string {
	return fmt.Sprintf("post_%d", now.UnixMilli())
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Labels != nil {
		cp.Labels = append([]string(nil), p.Labels...)
	}
	if p.DailyViews != nil {
		cp.DailyViews = make(map[string]int64, len(p.DailyViews))
		for k, v := range p.DailyViews {
			cp.DailyViews[k] = v
		}
	}
	if p.PreviewData != nil {
		pd := *p.PreviewData
		cp.PreviewData = &pd
	}
	return &cp
}
