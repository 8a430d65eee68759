package handlers

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/big-blue22/keizibann/internal/views"
)

type viewResponse struct {
	Success         bool             `json:"success"`
	TotalViewCount  int64            `json:"totalViewCount"`
	RecentViewCount int64            `json:"recentViewCount"`
	DailyViews      map[string]int64 `json:"dailyViews"`
}

func (s *HandlersTestSuite) view(postID, ip, ua string) *httptest.ResponseRecorder {
	return s.request(http.MethodPost, "/api/v1/posts/"+postID+"/view", nil,
		"X-Forwarded-For", ip,
		"User-Agent", ua,
	)
}

func (s *HandlersTestSuite) TestRecordViewThrottlesPerFingerprint() {
	s.seedPost("p1", s.now)

	w := s.view("p1", "203.0.113.5", "Firefox")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp viewResponse
	s.decode(w, &resp)
	s.True(resp.Success)
	s.Equal(int64(1), resp.TotalViewCount)
	s.Equal(int64(1), resp.RecentViewCount)
	s.Equal(map[string]int64{"2025-07-10": 1}, resp.DailyViews)

	w = s.view("p1", "203.0.113.5", "Firefox")
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal("300", w.Header().Get("Retry-After"))

	// another browser on the same address is a different viewer
	w = s.view("p1", "203.0.113.5", "Safari")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &resp)
	s.Equal(int64(2), resp.TotalViewCount)

	s.now = s.now.Add(views.Cooldown)
	w = s.view("p1", "203.0.113.5", "Firefox")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &resp)
	s.Equal(int64(3), resp.TotalViewCount)
	s.Equal(int64(3), resp.RecentViewCount)
}

func (s *HandlersTestSuite) TestRecordViewThrottledDoesNotWrite() {
	s.seedPost("p1", s.now)
	s.Require().Equal(http.StatusOK, s.view("p1", "198.51.100.7", "A").Code)
	s.Require().Equal(http.StatusTooManyRequests, s.view("p1", "198.51.100.7", "A").Code)

	w := s.request(http.MethodGet, "/api/v1/posts/p1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var post viewResponse
	s.decode(w, &post)
	s.Equal(int64(1), post.TotalViewCount)
}

func (s *HandlersTestSuite) TestRecordViewWindowRollsOver() {
	s.seedPost("p1", s.now)
	s.Require().Equal(http.StatusOK, s.view("p1", "203.0.113.5", "A").Code)

	s.now = s.now.Add(4 * 24 * time.Hour)
	w := s.view("p1", "203.0.113.5", "A")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp viewResponse
	s.decode(w, &resp)
	s.Equal(int64(2), resp.TotalViewCount)
	s.Equal(int64(1), resp.RecentViewCount)
	s.Equal(map[string]int64{"2025-07-14": 1}, resp.DailyViews)
}

func (s *HandlersTestSuite) TestRecordViewNotFound() {
	w := s.view("missing", "203.0.113.5", "A")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestRecordViewLegacy() {
	s.seedPost("p1", s.now)

	w := s.request(http.MethodPost, "/api/v1/views", map[string]string{"postId": "p1"})
	s.Require().Equal(http.StatusOK, w.Code)
	var resp viewResponse
	s.decode(w, &resp)
	s.Equal(int64(1), resp.TotalViewCount)

	w = s.request(http.MethodPost, "/api/v1/views", map[string]string{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/v1/views", map[string]string{"postId": "nope"})
	s.Equal(http.StatusNotFound, w.Code)
}
