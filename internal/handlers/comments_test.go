package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/big-blue22/keizibann/internal/models"
)

func (s *HandlersTestSuite) TestCommentLifecycle() {
	s.seedPost("p1", s.now)

	w := s.request(http.MethodPost, "/api/v1/posts/p1/comments", map[string]string{"content": "  first!  "})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Success bool            `json:"success"`
		Comment *models.Comment `json:"comment"`
	}
	s.decode(w, &created)
	s.True(created.Success)
	s.Equal("first!", created.Comment.Content)
	s.Equal("p1", created.Comment.PostID)

	s.now = s.now.Add(time.Minute)
	w = s.request(http.MethodPost, "/api/v1/posts/p1/comments", map[string]string{"content": "second"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/p1/comments", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var comments []*models.Comment
	s.decode(w, &comments)
	s.Require().Len(comments, 2)
	s.Equal("second", comments[0].Content)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1/comments/"+created.Comment.ID, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1/comments/"+created.Comment.ID, nil, adminHeader...)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/p1/comments/"+created.Comment.ID, nil, adminHeader...)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/p1", nil)
	var post models.Post
	s.decode(w, &post)
	s.Equal(1, post.CommentCount)
}

func (s *HandlersTestSuite) TestGetCommentsEmpty() {
	s.seedPost("p1", s.now)

	w := s.request(http.MethodGet, "/api/v1/posts/p1/comments", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlersTestSuite) TestCreateCommentValidation() {
	s.seedPost("p1", s.now)

	tests := []struct {
		name    string
		postID  string
		content string
		status  int
	}{
		{"blank", "p1", "   ", http.StatusBadRequest},
		{"too long", "p1", strings.Repeat("あ", 2001), http.StatusBadRequest},
		{"at limit", "p1", strings.Repeat("あ", 2000), http.StatusCreated},
		{"missing post", "nope", "hello", http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.now = s.now.Add(time.Millisecond)
			w := s.request(http.MethodPost, "/api/v1/posts/"+tt.postID+"/comments", map[string]string{"content": tt.content})
			s.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}
