package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const userAgent = "keizibann-cli/0.1.0"

// Client talks to the keizibann HTTP API
type Client struct {
	http *resty.Client
}

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field"`
	RetryAfter string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (field: %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 or 403 from the API
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403)
}

// New creates a client for baseURL
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: r}
}

// OnRequest registers a hook called before each request, used for debug logging
func (c *Client) OnRequest(fn func(method, url string)) {
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		fn(req.Method, req.URL)
		return nil
	})
}

// SetToken sends token as the admin bearer token. An empty token sends none.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func parseError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode(), RetryAfter: resp.Header().Get("Retry-After")}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = ""
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
	}
	return apiErr
}

// Login exchanges the admin password for a token
func (c *Client) Login(password string) (*auth.LoginResponse, error) {
	var result auth.LoginResponse
	resp, err := c.http.R().
		SetBody(map[string]string{"password": password}).
		SetResult(&result).
		Post("/api/v1/admin/login")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, parseError(resp)
	}
	return &result, nil
}

// ListPosts returns the feed in the given order (recent, popular, recent_popular)
func (c *Client) ListPosts(sortBy string) ([]*models.Post, error) {
	var posts []*models.Post
	req := c.http.R().SetResult(&posts)
	if sortBy != "" {
		req.SetQueryParam("sortBy", sortBy)
	}
	resp, err := req.Get("/api/v1/posts")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, parseError(resp)
	}
	return posts, nil
}

func (c *Client) GetPost(id string) (*models.Post, error) {
	var post models.Post
	resp, err := c.http.R().
		SetPathParam("id", id).
		SetResult(&post).
		Get("/api/v1/posts/{id}")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, parseError(resp)
	}
	return &post, nil
}

// DeletePost requires an admin token
func (c *Client) DeletePost(id string) error {
	resp, err := c.http.R().
		SetPathParam("id", id).
		Delete("/api/v1/posts/{id}")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return parseError(resp)
	}
	return nil
}

func (c *Client) ListComments(postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	resp, err := c.http.R().
		SetPathParam("id", postID).
		SetResult(&comments).
		Get("/api/v1/posts/{id}/comments")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, parseError(resp)
	}
	return comments, nil
}

// DeleteComment requires an admin token
func (c *Client) DeleteComment(postID, commentID string) error {
	resp, err := c.http.R().
		SetPathParams(map[string]string{"id": postID, "commentId": commentID}).
		Delete("/api/v1/posts/{id}/comments/{commentId}")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return parseError(resp)
	}
	return nil
}
