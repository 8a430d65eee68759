package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/config"
	"github.com/big-blue22/keizibann/internal/maintenance"
	"github.com/big-blue22/keizibann/internal/preview"
	"github.com/big-blue22/keizibann/internal/storage"
	"github.com/spf13/cobra"
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Store-level jobs (reads REDIS_URL / DATA_DIR like the server)",
	Long: `Maintenance commands open the store directly instead of going through the API.
They read the same environment and .env file as the server.`,
}

var recomputeViewsCmd = &cobra.Command{
	Use:   "recompute-views",
	Short: "Prune every post's daily window and rewrite recentViewCount",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			report, err := maintenance.RecomputeViews(ctx, store, time.Now())
			if err != nil {
				return err
			}
			return printReport("Recomputed view windows", report)
		})
	},
}

var backfillPreviewsCmd = &cobra.Command{
	Use:   "backfill-previews",
	Short: "Generate link cards for posts that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(func(ctx context.Context, store storage.Store) error {
			report, err := maintenance.BackfillPreviews(ctx, store, preview.NewFetcher(), limit)
			if err != nil {
				return err
			}
			return printReport("Backfilled previews", report)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo posts with random view history",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			return errors.New("--count must be positive")
		}
		return withStore(func(ctx context.Context, store storage.Store) error {
			posts, err := maintenance.SeedPosts(ctx, store, count, time.Now())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(posts)
			}
			printSuccess("Seeded %d posts into the %s store", len(posts), store.Name())
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a JSON snapshot of all posts and comments to S3",
	Long: `Upload a JSON snapshot of all posts and comments to S3.
Credentials come from the standard AWS chain (env, shared config, instance role).

Examples:
  keizibann maintenance backup --bucket my-board-backups
  keizibann maintenance backup --bucket my-board-backups --region ap-northeast-1 --prefix nightly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetString("bucket")
		region, _ := cmd.Flags().GetString("region")
		prefix, _ := cmd.Flags().GetString("prefix")
		if bucket == "" {
			bucket = os.Getenv("BACKUP_BUCKET")
		}
		if bucket == "" {
			return errors.New("--bucket or BACKUP_BUCKET is required")
		}

		return withStore(func(ctx context.Context, store storage.Store) error {
			uploader, err := storage.NewS3Uploader(ctx, region, bucket, prefix)
			if err != nil {
				return err
			}
			if err := uploader.CheckBucketAccess(ctx); err != nil {
				return err
			}
			res, err := maintenance.Backup(ctx, store, uploader, time.Now())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(res)
			}
			printSuccess("Uploaded s3://%s/%s (%d posts, %d comments, %d bytes)", res.Bucket, res.Key, res.Posts, res.Comments, res.Size)
			return nil
		})
	},
}

func init() {
	maintenanceCmd.AddCommand(recomputeViewsCmd)
	maintenanceCmd.AddCommand(backfillPreviewsCmd)
	maintenanceCmd.AddCommand(seedCmd)
	maintenanceCmd.AddCommand(backupCmd)

	backfillPreviewsCmd.Flags().Int("limit", 0, "Stop after this many posts (0 = all)")
	seedCmd.Flags().IntP("count", "n", 10, "Number of demo posts")
	backupCmd.Flags().String("bucket", "", "Target S3 bucket (default BACKUP_BUCKET)")
	backupCmd.Flags().String("region", envDefault("AWS_REGION", "ap-northeast-1"), "AWS region")
	backupCmd.Flags().String("prefix", "snapshots", "Key prefix inside the bucket")
}

// withStore opens the store the server would use and cancels on Ctrl-C
func withStore(fn func(ctx context.Context, store storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeFn, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	cliLog.Debug("Store opened", "backend", store.Name())
	return fn(ctx, store)
}

func openStore(cfg *config.Config) (storage.Store, func(), error) {
	if !cfg.RedisConfigured() {
		store, err := storage.NewFileStore(cfg.DataDir)
		return store, func() {}, err
	}

	var (
		rc  *cache.RedisClient
		err error
	)
	if cfg.RedisURL != "" {
		rc, err = cache.NewRedisClientFromURL(cfg.RedisURL)
	} else {
		rc, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return storage.NewRedisStore(rc), func() { _ = rc.Close() }, nil
}

func printReport(title string, report *maintenance.Report) error {
	if jsonOutput() {
		return printJSON(report)
	}
	printSuccess("%s: %d scanned, %d updated, %d failed", title, report.Scanned, report.Updated, report.Failed)
	if report.PrunedDays > 0 {
		fmt.Printf("  %s\n", faint(fmt.Sprintf("%d stale days pruned", report.PrunedDays)))
	}
	return nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
