package limiter

import (
	"context"
	"math"
	"sync"
	"time"
)

// idleBucketTTL is how long an untouched bucket is kept
const idleBucketTTL = 5 * time.Minute

// bucket is a token bucket for one key
// Tokens refill continuously at rate per second up to capacity; a request spends one.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

func (b *bucket) take(now time.Time, rate, capacity float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastSeen).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.tokens+elapsed*rate, capacity)
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}

// MemoryLimiter keeps one bucket per key in process memory
// Suitable for a single server; use RedisLimiter when several instances share a budget.
type MemoryLimiter struct {
	buckets  sync.Map // map[string]*bucket
	rate     float64
	capacity float64
	now      func() time.Time

	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter creates an in-memory limiter
// A fractional rate such as 0.2 allows one request every five seconds.
func NewMemoryLimiter(ratePerSecond, burst float64) *MemoryLimiter {
	return &MemoryLimiter{
		rate:        ratePerSecond,
		capacity:    math.Max(burst, 1),
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Allow spends a token from key's bucket
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()

	value, ok := l.buckets.Load(key)
	if !ok {
		value, _ = l.buckets.LoadOrStore(key, &bucket{tokens: l.capacity, lastSeen: now})
	}
	allowed := value.(*bucket).take(now, l.rate, l.capacity)

	l.sweep(now)
	return allowed
}

// sweep drops buckets idle for longer than idleBucketTTL, at most once per TTL
func (l *MemoryLimiter) sweep(now time.Time) {
	l.cleanupMu.Lock()
	defer l.cleanupMu.Unlock()

	if now.Sub(l.lastCleanup) < idleBucketTTL {
		return
	}

	threshold := now.Add(-idleBucketTTL)
	l.buckets.Range(func(key, value any) bool {
		if value.(*bucket).idleSince().Before(threshold) {
			l.buckets.Delete(key)
		}
		return true
	})
	l.lastCleanup = now
}

// Close is a no-op for the in-memory limiter
func (l *MemoryLimiter) Close() error {
	return nil
}
