package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/big-blue22/keizibann/internal/models"
)

func (s *HandlersTestSuite) TestCreatePost() {
	w := s.request(http.MethodPost, "/api/v1/posts", map[string]string{
		"url":             "https://example.org/article",
		"summary":         "  GPT-4 と Claude 3 の比較  ",
		"originalContent": "long original text about GPT-4 and Claude 3",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Success bool         `json:"success"`
		Post    *models.Post `json:"post"`
	}
	s.decode(w, &body)
	s.True(body.Success)
	s.Equal(models.NewPostID(s.now), body.Post.ID)
	s.Equal("GPT-4 と Claude 3 の比較", body.Post.Summary)
	s.Equal("Fetched Title", body.Post.Title)
	s.Equal([]string{"GPT-4", "Claude 3"}, body.Post.Labels)
	s.Equal(int64(0), body.Post.TotalViewCount)
	s.Equal(int64(0), body.Post.RecentViewCount)
	s.Empty(body.Post.DailyViews)
	s.Require().NotNil(body.Post.PreviewData)
	s.Equal("Card", body.Post.PreviewData.Title)

	// labels come from the original content when given
	s.Equal([]string{"long original text about GPT-4 and Claude 3"}, s.labeler.calls)

	stored, err := s.store.GetPost(context.Background(), body.Post.ID)
	s.Require().NoError(err)
	s.Equal(body.Post.URL, stored.URL)
}

func (s *HandlersTestSuite) TestCreatePostKeepsGivenTitle() {
	w := s.request(http.MethodPost, "/api/v1/posts", map[string]string{
		"url":     "https://example.org/a",
		"summary": "s",
		"title":   "Mine",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var body struct {
		Post *models.Post `json:"post"`
	}
	s.decode(w, &body)
	s.Equal("Mine", body.Post.Title)
	s.Equal([]string{"s"}, s.labeler.calls)
}

func (s *HandlersTestSuite) TestCreatePostSurvivesEnrichmentFailures() {
	s.labeler.err = errors.New("quota exhausted")
	s.previewer.err = errors.New("connection refused")

	w := s.request(http.MethodPost, "/api/v1/posts", map[string]string{
		"url":     "https://example.org/a",
		"summary": "still posted",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var body struct {
		Post *models.Post `json:"post"`
	}
	s.decode(w, &body)
	s.Empty(body.Post.Labels)
	s.Empty(body.Post.Title)
	s.Nil(body.Post.PreviewData)
}

func (s *HandlersTestSuite) TestCreatePostWithoutAI() {
	s.labeler.enabled = false

	w := s.request(http.MethodPost, "/api/v1/posts", map[string]string{
		"url":     "https://example.org/a",
		"summary": "s",
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Empty(s.labeler.calls)
}

func (s *HandlersTestSuite) TestCreatePostValidation() {
	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing url", map[string]string{"summary": "s"}, "url"},
		{"bad scheme", map[string]string{"url": "ftp://example.org", "summary": "s"}, "url"},
		{"relative url", map[string]string{"url": "/local", "summary": "s"}, "url"},
		{"blank summary", map[string]string{"url": "https://example.org", "summary": "   "}, "summary"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.request(http.MethodPost, "/api/v1/posts", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)

			var body map[string]string
			s.decode(w, &body)
			s.Equal("VALIDATION_ERROR", body["code"])
			s.Equal(tt.field, body["field"])
		})
	}

	posts, err := s.store.ListPosts(context.Background())
	s.Require().NoError(err)
	s.Empty(posts)
}

func (s *HandlersTestSuite) TestGetPostsSorting() {
	ctx := context.Background()
	s.seedPost("old", s.now.Add(-48*time.Hour))
	s.seedPost("new", s.now.Add(-time.Hour))
	_, err := s.store.UpdatePost(ctx, "old", func(p *models.Post) error {
		p.TotalViewCount = 10
		p.DailyViews = map[string]int64{"2025-07-01": 9, "2025-07-09": 1}
		return nil
	})
	s.Require().NoError(err)
	_, err = s.store.UpdatePost(ctx, "new", func(p *models.Post) error {
		p.TotalViewCount = 3
		p.DailyViews = map[string]int64{"2025-07-10": 3}
		return nil
	})
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddComment(ctx, &models.Comment{ID: "c1", PostID: "old", Content: "x", CreatedAt: s.now}))

	list := func(sortBy string) []*models.Post {
		w := s.request(http.MethodGet, "/api/v1/posts?sortBy="+sortBy, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		var posts []*models.Post
		s.decode(w, &posts)
		return posts
	}

	recent := list("recent")
	s.Require().Len(recent, 2)
	s.Equal("new", recent[0].ID)

	popular := list("popular")
	s.Equal("old", popular[0].ID)
	s.Equal(1, popular[0].CommentCount)
	// pruned on read
	s.Equal(int64(1), popular[0].RecentViewCount)
	s.Equal(map[string]int64{"2025-07-09": 1}, popular[0].DailyViews)

	trending := list("recent_popular")
	s.Equal("new", trending[0].ID)

	top := list("popular&limit=1")
	s.Require().Len(top, 1)
	s.Equal("old", top[0].ID)
	s.Len(list("popular&limit=abc"), 2)
}

func (s *HandlersTestSuite) TestGetPostsEmpty() {
	w := s.request(http.MethodGet, "/api/v1/posts", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlersTestSuite) TestGetPost() {
	s.seedPost("p1", s.now)

	w := s.request(http.MethodGet, "/api/v1/posts/p1", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestGetPostPrunesStaleWindow() {
	ctx := context.Background()
	s.seedPost("p1", s.now.Add(-10*24*time.Hour))
	_, err := s.store.UpdatePost(ctx, "p1", func(p *models.Post) error {
		p.TotalViewCount = 7
		p.DailyViews = map[string]int64{"2025-07-01": 5, "2025-07-09": 2}
		p.RecentViewCount = 7
		return nil
	})
	s.Require().NoError(err)

	w := s.request(http.MethodGet, "/api/v1/posts/p1", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var post models.Post
	s.decode(w, &post)
	s.Equal(int64(7), post.TotalViewCount)
	s.Equal(int64(2), post.RecentViewCount)
	s.Equal(map[string]int64{"2025-07-09": 2}, post.DailyViews)
}

func (s *HandlersTestSuite) TestDeletePost() {
	s.seedPost("p1", s.now.Add(-time.Hour))
	s.seedPost("p2", s.now)

	w := s.request(http.MethodDelete, "/api/v1/posts/p1", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1", nil, "Authorization", "Bearer nope")
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1", nil, adminHeader...)
	s.Equal(http.StatusOK, w.Code)

	posts, err := s.store.ListPosts(context.Background())
	s.Require().NoError(err)
	s.Require().Len(posts, 1)
	s.Equal("p2", posts[0].ID)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1", nil, adminHeader...)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestRegeneratePreview() {
	s.seedPost("p1", s.now)

	w := s.request(http.MethodPut, "/api/v1/posts/p1/preview", nil, adminHeader...)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal([]string{"https://example.org/p1"}, s.previewer.fetched)

	w = s.request(http.MethodPut, "/api/v1/posts/p1/preview", map[string]string{"url": "https://example.org/other"}, adminHeader...)
	s.Require().Equal(http.StatusOK, w.Code)

	stored, err := s.store.GetPost(context.Background(), "p1")
	s.Require().NoError(err)
	s.Require().NotNil(stored.PreviewData)
	s.Equal("https://example.org/other", stored.PreviewData.URL)

	w = s.request(http.MethodPut, "/api/v1/posts/missing/preview", nil, adminHeader...)
	s.Equal(http.StatusNotFound, w.Code)

	s.previewer.err = errors.New("timeout")
	w = s.request(http.MethodPut, "/api/v1/posts/p1/preview", nil, adminHeader...)
	s.Equal(http.StatusBadGateway, w.Code)
}
