package storage

import (
	"context"
	"errors"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/models"
	"go.uber.org/zap"
)

// FallbackStore serves reads from secondary when primary is unreachable.
// Writes always go to primary so the two never diverge silently.
type FallbackStore struct {
	primary   Store
	secondary Store
}

// NewFallbackStore wraps primary with a read-only secondary
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

func (s *FallbackStore) Name() string { return s.primary.Name() }

func (s *FallbackStore) useSecondary(op string, err error) bool {
	if !errors.Is(err, ErrUnavailable) {
		return false
	}
	logger.WarnWithFields("Primary store unavailable, reading from fallback", err,
		zap.String("operation", op),
		zap.String("fallback", s.secondary.Name()),
	)
	return true
}

func (s *FallbackStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.primary.ListPosts(ctx)
	if err != nil && s.useSecondary("list_posts", err) {
		return s.secondary.ListPosts(ctx)
	}
	return posts, err
}

func (s *FallbackStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.primary.GetPost(ctx, id)
	if err != nil && s.useSecondary("get_post", err) {
		return s.secondary.GetPost(ctx, id)
	}
	return post, err
}

func (s *FallbackStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.primary.ListComments(ctx, postID)
	if err != nil && s.useSecondary("list_comments", err) {
		return s.secondary.ListComments(ctx, postID)
	}
	return comments, err
}

func (s *FallbackStore) CountComments(ctx context.Context, postID string) (int, error) {
	n, err := s.primary.CountComments(ctx, postID)
	if err != nil && s.useSecondary("count_comments", err) {
		return s.secondary.CountComments(ctx, postID)
	}
	return n, err
}

func (s *FallbackStore) CreatePost(ctx context.Context, post *models.Post) error {
	return s.primary.CreatePost(ctx, post)
}

func (s *FallbackStore) UpdatePost(ctx context.Context, id string, mutate MutateFunc) (*models.Post, error) {
	return s.primary.UpdatePost(ctx, id, mutate)
}

func (s *FallbackStore) DeletePost(ctx context.Context, id string) error {
	return s.primary.DeletePost(ctx, id)
}

func (s *FallbackStore) AddComment(ctx context.Context, comment *models.Comment) error {
	return s.primary.AddComment(ctx, comment)
}

func (s *FallbackStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	return s.primary.DeleteComment(ctx, postID, commentID)
}
