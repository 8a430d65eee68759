package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/models"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// postRecord is every shape a stored post has had. Older revisions wrote
// viewCount/recentViews and the earliest one wrote only text.
type postRecord struct {
	ID             string              `json:"id"`
	URL            string              `json:"url"`
	Title          string              `json:"title"`
	Summary        string              `json:"summary"`
	Content        string              `json:"content"`
	Text           string              `json:"text"`
	Labels         []string            `json:"labels"`
	CreatedAt      string              `json:"createdAt"`
	TotalViewCount *int64              `json:"totalViewCount"`
	ViewCount      *int64              `json:"viewCount"`
	DailyViews     map[string]int64    `json:"dailyViews"`
	RecentViews    map[string]int64    `json:"recentViews"`
	PreviewData    *models.PreviewData `json:"previewData"`
}

// decodePost is the only place stored post bytes become a models.Post.
// A record that was double encoded (a JSON string holding JSON) is unwrapped first.
func decodePost(raw []byte) (*models.Post, error) {
	raw, err := unwrapString(raw)
	if err != nil {
		return nil, err
	}

	var rec postRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if strings.TrimSpace(rec.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	post := &models.Post{
		ID:          rec.ID,
		URL:         rec.URL,
		Title:       rec.Title,
		Summary:     firstNonEmpty(rec.Summary, rec.Content, rec.Text),
		Labels:      rec.Labels,
		PreviewData: rec.PreviewData,
	}
	if post.Labels == nil {
		post.Labels = []string{}
	}
	if rec.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
			post.CreatedAt = t.UTC()
		}
	}

	switch {
	case rec.TotalViewCount != nil:
		post.TotalViewCount = *rec.TotalViewCount
	case rec.ViewCount != nil:
		post.TotalViewCount = *rec.ViewCount
	}
	if post.TotalViewCount < 0 {
		post.TotalViewCount = 0
	}

	daily := rec.DailyViews
	if daily == nil {
		daily = rec.RecentViews
	}
	post.DailyViews = make(map[string]int64, len(daily))
	var sum int64
	for day, n := range daily {
		if n <= 0 {
			continue
		}
		post.DailyViews[day] = n
		sum += n
	}

	// recentViewCount is a cache of the window; the stored value is never trusted
	post.RecentViewCount = sum

	return post, nil
}

// storedPost is the canonical stored shape. commentCount is derived from the
// comment list on read and is never stored.
type storedPost struct {
	ID              string              `json:"id"`
	URL             string              `json:"url,omitempty"`
	Title           string              `json:"title,omitempty"`
	Summary         string              `json:"summary,omitempty"`
	Labels          []string            `json:"labels"`
	CreatedAt       time.Time           `json:"createdAt"`
	TotalViewCount  int64               `json:"totalViewCount"`
	DailyViews      map[string]int64    `json:"dailyViews"`
	RecentViewCount int64               `json:"recentViewCount"`
	PreviewData     *models.PreviewData `json:"previewData,omitempty"`
}

// encodePost always writes the canonical shape
func encodePost(post *models.Post) (string, error) {
	if post.Labels == nil {
		post.Labels = []string{}
	}
	if post.DailyViews == nil {
		post.DailyViews = map[string]int64{}
	}
	b, err := json.Marshal(storedPost{
		ID:              post.ID,
		URL:             post.URL,
		Title:           post.Title,
		Summary:         post.Summary,
		Labels:          post.Labels,
		CreatedAt:       post.CreatedAt,
		TotalViewCount:  post.TotalViewCount,
		DailyViews:      post.DailyViews,
		RecentViewCount: post.RecentViewCount,
		PreviewData:     post.PreviewData,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeComment(raw []byte) (*models.Comment, error) {
	raw, err := unwrapString(raw)
	if err != nil {
		return nil, err
	}
	var c models.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	return &c, nil
}

func encodeComment(c *models.Comment) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unwrapString(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed, nil
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return []byte(inner), nil
}

// logMalformed records a skipped record. Listing continues past it.
func logMalformed(kind string, index int, err error) {
	metrics.Get().MalformedRecordsTotal.WithLabelValues(kind).Inc()
	logger.WarnWithFields("Skipping malformed record", err,
		zap.String("kind", kind),
		zap.Int("index", index),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
