package views

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/big-blue22/keizibann/internal/cache"
)

// Cooldown is the minimum time between two accepted views from the same fingerprint
const Cooldown = 5 * time.Minute

// Throttle suppresses repeat views of one subject by one fingerprint.
// Concurrent first views may both be accepted; the throttle is best effort.
type Throttle interface {
	// IsThrottled reports whether a view accepted before now is still cooling down
	IsThrottled(ctx context.Context, subjectID, fingerprint string, now time.Time) (bool, error)
	// RecordAccepted starts a new cooldown at now
	RecordAccepted(ctx context.Context, subjectID, fingerprint string, now time.Time) error
}

// Fingerprint derives an opaque requester id from network attributes.
// Hashing keeps throttle keys short regardless of the User-Agent length.
func Fingerprint(clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(clientIP + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

func throttleKey(subjectID, fingerprint string) string {
	return fmt.Sprintf("view_throttle:%s:%s", subjectID, fingerprint)
}

// RedisThrottle stores the last accepted instant (unix ms) under a key that expires with the cooldown
type RedisThrottle struct {
	rc       *cache.RedisClient
	cooldown time.Duration
}

func NewRedisThrottle(rc *cache.RedisClient) *RedisThrottle {
	return &RedisThrottle{rc: rc, cooldown: Cooldown}
}

func (t *RedisThrottle) IsThrottled(ctx context.Context, subjectID, fingerprint string, now time.Time) (bool, error) {
	raw, err := t.rc.Get(ctx, throttleKey(subjectID, fingerprint))
	if errors.Is(err, cache.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	lastMs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// unreadable record, let the next accepted view overwrite it
		return false, nil
	}
	return now.Sub(time.UnixMilli(lastMs)) < t.cooldown, nil
}

func (t *RedisThrottle) RecordAccepted(ctx context.Context, subjectID, fingerprint string, now time.Time) error {
	return t.rc.SetEx(ctx, throttleKey(subjectID, fingerprint), now.UnixMilli(), t.cooldown)
}

// sweepEvery bounds how many inserts pass between full sweeps of expired entries
const sweepEvery = 1024

// MemoryThrottle keeps key -> expiry in process memory. Expired entries are evicted
// when they are looked up, plus a sweep every sweepEvery inserts so keys that are
// never seen again do not accumulate. It does not coordinate across processes.
type MemoryThrottle struct {
	mu       sync.Mutex
	expiries map[string]time.Time
	cooldown time.Duration
	inserts  int
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		expiries: make(map[string]time.Time),
		cooldown: Cooldown,
	}
}

func (t *MemoryThrottle) IsThrottled(_ context.Context, subjectID, fingerprint string, now time.Time) (bool, error) {
	key := throttleKey(subjectID, fingerprint)

	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.expiries[key]
	if !ok {
		return false, nil
	}
	if !now.Before(expiry) {
		delete(t.expiries, key)
		return false, nil
	}
	return true, nil
}

func (t *MemoryThrottle) RecordAccepted(_ context.Context, subjectID, fingerprint string, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expiries[throttleKey(subjectID, fingerprint)] = now.Add(t.cooldown)
	t.inserts++
	if t.inserts >= sweepEvery {
		t.inserts = 0
		for k, expiry := range t.expiries {
			if !now.Before(expiry) {
				delete(t.expiries, k)
			}
		}
	}
	return nil
}

// Len returns the number of tracked keys, expired or not
func (t *MemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expiries)
}
