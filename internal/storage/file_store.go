package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/big-blue22/keizibann/internal/models"
	jsoniter "github.com/json-iterator/go"
)

// FileStore keeps posts and comments in two JSON files for local development.
// Files are re-read on every call so hand edits show up without a restart.
// The mutex makes it safe within one process only.
type FileStore struct {
	postsPath    string
	commentsPath string
	mu           sync.RWMutex
}

// NewFileStore creates dir if needed and stores data in dir/posts.json and dir/comments.json
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		postsPath:    filepath.Join(dir, "posts.json"),
		commentsPath: filepath.Join(dir, "comments.json"),
	}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	defer observe(s.Name(), "list_posts", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadPosts()
}

func (s *FileStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPostNotFound
}

func (s *FileStore) CreatePost(ctx context.Context, post *models.Post) error {
	defer observe(s.Name(), "create_post", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := encodePost(post)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	items, err := readArray(s.postsPath)
	if err != nil {
		return err
	}
	items = append([]jsoniter.RawMessage{jsoniter.RawMessage(encoded)}, items...)
	return writeJSON(s.postsPath, items)
}

// UpdatePost rewrites only the matching element. Every other element, including ones
// that fail to decode, is written back byte for byte.
func (s *FileStore) UpdatePost(ctx context.Context, id string, mutate MutateFunc) (*models.Post, error) {
	defer observe(s.Name(), "update_post", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readArray(s.postsPath)
	if err != nil {
		return nil, err
	}
	idx, post := findPostItem(items, id)
	if post == nil {
		return nil, ErrPostNotFound
	}
	if err := mutate(post); err != nil {
		return nil, err
	}
	encoded, err := encodePost(post)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	items[idx] = jsoniter.RawMessage(encoded)
	if err := writeJSON(s.postsPath, items); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *FileStore) DeletePost(ctx context.Context, id string) error {
	defer observe(s.Name(), "delete_post", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readArray(s.postsPath)
	if err != nil {
		return err
	}
	idx, post := findPostItem(items, id)
	if post == nil {
		return ErrPostNotFound
	}
	items = append(items[:idx], items[idx+1:]...)
	if err := writeJSON(s.postsPath, items); err != nil {
		return err
	}

	comments, err := readArray(s.commentsPath)
	if err != nil {
		return err
	}
	remaining := comments[:0]
	for _, item := range comments {
		// undecodable comments belong to no post we can name, so they stay
		if c, err := decodeComment(item); err == nil && c.PostID == id {
			continue
		}
		remaining = append(remaining, item)
	}
	return writeJSON(s.commentsPath, remaining)
}

func (s *FileStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	defer observe(s.Name(), "list_comments", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.loadComments()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Comment, 0)
	for _, c := range all {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	// older files appended comments, so order explicitly
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) CountComments(ctx context.Context, postID string) (int, error) {
	comments, err := s.ListComments(ctx, postID)
	if err != nil {
		return 0, err
	}
	return len(comments), nil
}

func (s *FileStore) AddComment(ctx context.Context, comment *models.Comment) error {
	defer observe(s.Name(), "add_comment", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := encodeComment(comment)
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}
	items, err := readArray(s.commentsPath)
	if err != nil {
		return err
	}
	items = append([]jsoniter.RawMessage{jsoniter.RawMessage(encoded)}, items...)
	return writeJSON(s.commentsPath, items)
}

func (s *FileStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	defer observe(s.Name(), "delete_comment", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readArray(s.commentsPath)
	if err != nil {
		return err
	}
	for i, item := range items {
		c, err := decodeComment(item)
		if err != nil {
			continue
		}
		if c.ID == commentID && c.PostID == postID {
			items = append(items[:i], items[i+1:]...)
			return writeJSON(s.commentsPath, items)
		}
	}
	return ErrCommentNotFound
}

func (s *FileStore) loadPosts() ([]*models.Post, error) {
	items, err := readArray(s.postsPath)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(items))
	for i, item := range items {
		p, err := decodePost(item)
		if err != nil {
			logMalformed("post", i, err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *FileStore) loadComments() ([]*models.Comment, error) {
	items, err := readArray(s.commentsPath)
	if err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, 0, len(items))
	for i, item := range items {
		c, err := decodeComment(item)
		if err != nil {
			logMalformed("comment", i, err)
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// findPostItem decodes elements until it finds id. Elements that fail to decode are skipped.
func findPostItem(items []jsoniter.RawMessage, id string) (int, *models.Post) {
	for i, item := range items {
		p, err := decodePost(item)
		if err != nil {
			continue
		}
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

// readArray returns the raw elements of a JSON array file; a missing file is empty
func readArray(path string) ([]jsoniter.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []jsoniter.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON array: %v", ErrMalformedRecord, filepath.Base(path), err)
	}
	return items, nil
}

// writeJSON replaces path atomically via a temp file in the same directory
func writeJSON(path string, items []jsoniter.RawMessage) error {
	if items == nil {
		items = []jsoniter.RawMessage{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
