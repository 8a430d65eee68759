package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by reads of missing keys
const Nil = redis.Nil

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

// NewRedisClient connects to host:port and pings the server
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	return connect(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
	})
}

// NewRedisClientFromURL connects using a redis:// or rediss:// URL (Upstash, Vercel KV)
func NewRedisClientFromURL(rawURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return connect(opts)
}

// WrapClient wraps an existing client without pinging it. Used by tests.
func WrapClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func connect(opts *redis.Options) (*RedisClient, error) {
	opts.MaxRetries = 3
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err, zap.String("address", opts.Addr))
		_ = client.Close()
		return nil, err
	}

	rc := &RedisClient{client: client}
	globalRedis = rc

	logger.Log.Info("Redis client connected", zap.String("address", opts.Addr))

	return rc, nil
}

// GetRedisClient returns the global Redis client instance (nil when Redis is not configured)
func GetRedisClient() *RedisClient {
	return globalRedis
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// SetEx stores a value with expiration
func (rc *RedisClient) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// SetNX stores a value only if the key does not exist
func (rc *RedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return rc.client.SetNX(ctx, key, value, ttl).Result()
}

func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

func (rc *RedisClient) IncrBy(ctx context.Context, key string, increment int64) (int64, error) {
	return rc.client.IncrBy(ctx, key, increment).Result()
}

// GetInt retrieves an integer value
func (rc *RedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	return rc.client.Get(ctx, key).Int64()
}

func (rc *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return rc.client.Expire(ctx, key, ttl).Err()
}

func (rc *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rc.client.TTL(ctx, key).Result()
}

// LPush pushes values to the head of a list
func (rc *RedisClient) LPush(ctx context.Context, key string, values ...interface{}) error {
	return rc.client.LPush(ctx, key, values...).Err()
}

// LRange retrieves a range from a list
func (rc *RedisClient) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return rc.client.LRange(ctx, key, start, stop).Result()
}

func (rc *RedisClient) LLen(ctx context.Context, key string) (int64, error) {
	return rc.client.LLen(ctx, key).Result()
}

// LRem removes up to count occurrences of value from a list
func (rc *RedisClient) LRem(ctx context.Context, key string, count int64, value interface{}) (int64, error) {
	return rc.client.LRem(ctx, key, count, value).Result()
}

// Watch runs fn in an optimistic transaction guarded by WATCH on keys.
// fn returns redis.TxFailedErr (via tx.TxPipelined) when a watched key changed.
func (rc *RedisClient) Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	return rc.client.Watch(ctx, fn, keys...)
}

// Pipelined runs fn against a non-transactional pipeline
func (rc *RedisClient) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return rc.client.Pipelined(ctx, fn)
}
