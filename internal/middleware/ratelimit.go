package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/big-blue22/keizibann/internal/errors"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name labels the limiter in metrics and in the Redis key
	Name string
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request; defaults to the client IP
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns the limit applied to the whole API
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "api",
		Limit:   120,
		Window:  time.Minute,
		KeyFunc: util.ClientIP,
	}
}

// PostRateLimitConfig returns limits for creating posts and comments
func PostRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "write",
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: util.ClientIP,
	}
}

// LoginRateLimitConfig returns stricter limits for the admin login
func LoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "login",
		Limit:   5,
		Window:  time.Minute,
		KeyFunc: util.ClientIP,
	}
}

// AIRateLimitConfig returns limits for endpoints that call the model
func AIRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "ai",
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: util.ClientIP,
	}
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = util.ClientIP
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return cfg
}

// LimiterStore keeps one token bucket per key and forgets keys that go idle
type LimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore refills `limit` tokens spread over `window`, with a burst of `limit`
func NewLimiterStore(limit int, window time.Duration) *LimiterStore {
	return &LimiterStore{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idleTTL: 15 * time.Minute,
	}
}

// Get returns the limiter for key, creating it on first use
func (s *LimiterStore) Get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Allow consumes a token for key. When denied it returns how long until one is available.
func (s *LimiterStore) Allow(key string) (bool, time.Duration) {
	lim := s.Get(key)
	now := time.Now()
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len is the number of tracked keys
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops keys not seen within the idle TTL
func (s *LimiterStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done
func (s *LimiterStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// NewRateLimiter creates an in-process rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	config = config.withDefaults()
	store := NewLimiterStore(config.Limit, config.Window)
	store.StartJanitor(context.Background(), 2*time.Minute)

	return func(c *gin.Context) {
		ok, retryAfter := store.Allow(config.KeyFunc(c))
		if !ok {
			rejectRateLimited(c, config, retryAfter)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, config RateLimitConfig, retryAfter time.Duration) {
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	RecordRateLimitExceeded(config.Name, c.Request.Method)
	logger.Log.Debug("Rate limit exceeded",
		logger.WithIP(util.ClientIP(c)),
	)
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	util.RespondWithAPIError(c, errors.RateLimited("rate limit exceeded", retryAfter))
	c.Abort()
}
