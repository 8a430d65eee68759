package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	postsKey      = "posts"
	maxTxAttempts = 100
	txBackoffMax  = 5 * time.Millisecond
)

func commentsKey(postID string) string {
	return "comments:" + postID
}

// RedisStore keeps posts as JSON strings in the "posts" list (newest first) and each
// post's comments in "comments:{postId}".
type RedisStore struct {
	rc *cache.RedisClient
}

// NewRedisStore creates a store on top of a connected client
func NewRedisStore(rc *cache.RedisClient) *RedisStore {
	return &RedisStore{rc: rc}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	defer observe(s.Name(), "list_posts", time.Now())

	raws, err := s.rc.LRange(ctx, postsKey, 0, -1)
	if err != nil {
		return nil, unavailable("list posts", err)
	}

	posts := make([]*models.Post, 0, len(raws))
	for i, raw := range raws {
		post, err := decodePost([]byte(raw))
		if err != nil {
			logMalformed("post", i, err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *RedisStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	defer observe(s.Name(), "get_post", time.Now())

	raws, err := s.rc.LRange(ctx, postsKey, 0, -1)
	if err != nil {
		return nil, unavailable("get post", err)
	}
	_, post, _ := findPost(raws, id)
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *RedisStore) CreatePost(ctx context.Context, post *models.Post) error {
	defer observe(s.Name(), "create_post", time.Now())

	encoded, err := encodePost(post)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	if err := s.rc.LPush(ctx, postsKey, encoded); err != nil {
		return unavailable("create post", err)
	}
	return nil
}

// UpdatePost rewrites a single element with LSET inside WATCH/MULTI on the list.
// A concurrent write to the list aborts the transaction and the update is retried
// from a fresh read, so no update is lost.
func (s *RedisStore) UpdatePost(ctx context.Context, id string, mutate MutateFunc) (*models.Post, error) {
	defer observe(s.Name(), "update_post", time.Now())

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		var updated *models.Post

		err := s.rc.Watch(ctx, func(tx *redis.Tx) error {
			raws, err := tx.LRange(ctx, postsKey, 0, -1).Result()
			if err != nil {
				return unavailable("read posts", err)
			}

			idx, post, _ := findPost(raws, id)
			if post == nil {
				return ErrPostNotFound
			}
			if err := mutate(post); err != nil {
				return &abortError{err: err}
			}

			encoded, err := encodePost(post)
			if err != nil {
				return fmt.Errorf("encode post: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.LSet(ctx, postsKey, int64(idx), encoded)
				return nil
			})
			if err != nil {
				return err
			}
			updated = post
			return nil
		}, postsKey)

		var abort *abortError
		switch {
		case err == nil:
			return updated, nil
		case errors.As(err, &abort):
			return nil, abort.err
		case errors.Is(err, redis.TxFailedErr):
			metrics.Get().StoreConflictsTotal.WithLabelValues(s.Name()).Inc()
			if err := txBackoff(ctx); err != nil {
				return nil, unavailable("update post", err)
			}
			continue
		case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUnavailable):
			return nil, err
		default:
			return nil, unavailable("update post", err)
		}
	}
	return nil, ErrConflict
}

// txBackoff sleeps a random slice of txBackoffMax so writers that lost a WATCH race
// do not retry in lockstep
func txBackoff(ctx context.Context) error {
	t := time.NewTimer(rand.N(txBackoffMax))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DeletePost removes the exact stored element with LREM so the order of the
// remaining posts is untouched, then drops the post's comment list.
func (s *RedisStore) DeletePost(ctx context.Context, id string) error {
	defer observe(s.Name(), "delete_post", time.Now())

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		raws, err := s.rc.LRange(ctx, postsKey, 0, -1)
		if err != nil {
			return unavailable("read posts", err)
		}
		_, post, raw := findPost(raws, id)
		if post == nil {
			return ErrPostNotFound
		}

		removed, err := s.rc.LRem(ctx, postsKey, 1, raw)
		if err != nil {
			return unavailable("delete post", err)
		}
		if removed == 0 {
			// element rewritten between read and remove
			continue
		}
		if err := s.rc.Del(ctx, commentsKey(id)); err != nil {
			return unavailable("delete comments", err)
		}
		return nil
	}
	return ErrConflict
}

func (s *RedisStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	defer observe(s.Name(), "list_comments", time.Now())

	raws, err := s.rc.LRange(ctx, commentsKey(postID), 0, -1)
	if err != nil {
		return nil, unavailable("list comments", err)
	}
	comments := make([]*models.Comment, 0, len(raws))
	for i, raw := range raws {
		c, err := decodeComment([]byte(raw))
		if err != nil {
			logMalformed("comment", i, err)
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *RedisStore) CountComments(ctx context.Context, postID string) (int, error) {
	n, err := s.rc.LLen(ctx, commentsKey(postID))
	if err != nil {
		return 0, unavailable("count comments", err)
	}
	return int(n), nil
}

func (s *RedisStore) AddComment(ctx context.Context, comment *models.Comment) error {
	defer observe(s.Name(), "add_comment", time.Now())

	encoded, err := encodeComment(comment)
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}
	if err := s.rc.LPush(ctx, commentsKey(comment.PostID), encoded); err != nil {
		return unavailable("add comment", err)
	}
	return nil
}

func (s *RedisStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	defer observe(s.Name(), "delete_comment", time.Now())

	key := commentsKey(postID)
	raws, err := s.rc.LRange(ctx, key, 0, -1)
	if err != nil {
		return unavailable("read comments", err)
	}
	for _, raw := range raws {
		c, err := decodeComment([]byte(raw))
		if err != nil || c.ID != commentID {
			continue
		}
		if _, err := s.rc.LRem(ctx, key, 1, raw); err != nil {
			return unavailable("delete comment", err)
		}
		return nil
	}
	return ErrCommentNotFound
}

// findPost returns the list index, decoded post and raw element for id, or -1/nil.
func findPost(raws []string, id string) (int, *models.Post, string) {
	for i, raw := range raws {
		post, err := decodePost([]byte(raw))
		if err != nil {
			logMalformed("post", i, err)
			continue
		}
		if post.ID == id {
			return i, post, raw
		}
	}
	return -1, nil, ""
}

// abortError carries an error returned by a MutateFunc out of the transaction
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }

func observe(backend, op string, start time.Time) {
	metrics.Get().StoreOperationDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
