package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/big-blue22/keizibann/internal/models"
)

// ObjectAPI is the part of the S3 client the uploader needs
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader writes store snapshots to an S3 bucket
type S3Uploader struct {
	client ObjectAPI
	bucket string
	region string
	prefix string
}

// Snapshot is a point-in-time copy of every post and comment
type Snapshot struct {
	TakenAt  time.Time         `json:"takenAt"`
	Backend  string            `json:"backend"`
	Posts    []*models.Post    `json:"posts"`
	Comments []*models.Comment `json:"comments"`
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key      string `json:"key"`
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
	Size     int64  `json:"size"`
	Posts    int    `json:"posts"`
	Comments int    `json:"comments"`
}

// NewS3Uploader loads the default AWS credential chain for region
func NewS3Uploader(ctx context.Context, region, bucket, prefix string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(cfg), region, bucket, prefix), nil
}

// NewS3UploaderWithClient uses an existing client
func NewS3UploaderWithClient(client ObjectAPI, region, bucket, prefix string) *S3Uploader {
	if prefix == "" {
		prefix = "snapshots"
	}
	return &S3Uploader{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
	}
}

// TakeSnapshot reads all posts and their comments from store
func TakeSnapshot(ctx context.Context, store Store, now time.Time) (*Snapshot, error) {
	posts, err := store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	snap := &Snapshot{
		TakenAt:  now.UTC(),
		Backend:  store.Name(),
		Posts:    posts,
		Comments: []*models.Comment{},
	}
	for _, p := range posts {
		comments, err := store.ListComments(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list comments for %s: %w", p.ID, err)
		}
		snap.Comments = append(snap.Comments, comments...)
	}
	return snap, nil
}

// UploadSnapshot writes snap as JSON under {prefix}/{yyyy}/{mm}/keizibann-{timestamp}.json
func (u *S3Uploader) UploadSnapshot(ctx context.Context, snap *Snapshot) (*UploadResult, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := u.snapshotKey(snap.TakenAt)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
		Metadata: map[string]string{
			"backend":  snap.Backend,
			"posts":    fmt.Sprint(len(snap.Posts)),
			"taken-at": snap.TakenAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:      key,
		Bucket:   u.bucket,
		Region:   u.region,
		Size:     int64(len(body)),
		Posts:    len(snap.Posts),
		Comments: len(snap.Comments),
	}, nil
}

// DeleteSnapshot deletes a snapshot object
func (u *S3Uploader) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

func (u *S3Uploader) snapshotKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%d/%02d/keizibann-%s.json", u.prefix, t.Year(), t.Month(), t.Format("20060102T150405Z"))
}
