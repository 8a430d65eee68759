package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/big-blue22/keizibann/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnavailable     = errors.New("store unavailable")
	ErrConflict        = errors.New("concurrent modification, retries exhausted")
)

// MutateFunc edits a post in place. Returning an error aborts the update without writing.
type MutateFunc func(post *models.Post) error

// PostStore holds the ordered post list (newest first)
type PostStore interface {
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	// UpdatePost locates the post by id and rewrites it at its position.
	// mutate may run more than once when a concurrent writer forces a retry.
	UpdatePost(ctx context.Context, id string, mutate MutateFunc) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// CommentStore holds one comment list per post (newest first)
type CommentStore interface {
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	CountComments(ctx context.Context, postID string) (int, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// Store is the full persistence surface used by the handlers
type Store interface {
	PostStore
	CommentStore
	// Name identifies the backend in logs and metrics ("redis", "file")
	Name() string
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*FallbackStore)(nil)
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
