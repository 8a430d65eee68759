package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestListPosts(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/posts", r.URL.Path)
		assert.Equal(t, "popular", r.URL.Query().Get("sortBy"))
		assert.Equal(t, userAgent, r.UserAgent())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"post_1","totalViewCount":4,"recentViewCount":2,"dailyViews":{"2025-07-10":2},"labels":["GPT-4"]}]`)
	})

	posts, err := c.ListPosts("popular")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "post_1", posts[0].ID)
	assert.Equal(t, int64(4), posts[0].TotalViewCount)
	assert.Equal(t, []string{"GPT-4"}, posts[0].Labels)
}

func TestLoginAndToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/admin/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"code":"UNAUTHORIZED","message":"invalid password"}`)
				return
			}
			_, _ = io.WriteString(w, `{"success":true,"token":"tok","expiresAt":"2025-07-10T12:00:00Z"}`)
		case "/api/v1/posts/p1":
			assert.Equal(t, http.MethodDelete, r.Method)
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"code":"UNAUTHORIZED","message":"admin token required"}`)
				return
			}
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := c.Login("wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid password")

	resp, err := c.Login("secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)

	assert.True(t, IsUnauthorized(c.DeletePost("p1")))

	c.SetToken(resp.Token)
	assert.NoError(t, c.DeletePost("p1"))

	c.SetToken("")
	assert.True(t, IsUnauthorized(c.DeletePost("p1")))
}

func TestCommentsAndErrors(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/posts/p1/comments":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"c2","postId":"p1","content":"b"},{"id":"c1","postId":"p1","content":"a"}]`)
		case r.URL.Path == "/api/v1/posts/p1/comments/c9":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"NOT_FOUND","message":"comment not found"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
		}
	})

	comments, err := c.ListComments("p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)

	err = c.DeleteComment("p1", "c9")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	_, err = c.GetPost("p2")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, "[502] upstream down", apiErr.Error())
}
