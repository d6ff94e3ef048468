package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/redis/go-redis/v9"
)

// fixedWindow counts a request and returns the new count
// The key expires with its window, so no cleanup is needed.
var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter shares a fixed-window budget between server instances
// Key format: "ratelimit:{key}:{window number}"
type RedisLimiter struct {
	client   *redis.Client
	requests int64
	window   time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

// NewRedisLimiter connects to Redis and allows requests per window for each key
func NewRedisLimiter(addr, password string, db, requests int, window time.Duration, log *logger.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return newRedisLimiter(client, requests, window, log), nil
}

func newRedisLimiter(client *redis.Client, requests int, window time.Duration, log *logger.Logger) *RedisLimiter {
	if window < time.Millisecond {
		window = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLimiter{
		client:   client,
		requests: int64(requests),
		window:   window,
		logger:   log.WithComponent("RedisLimiter"),
		now:      time.Now,
	}
}

// Allow counts the request in key's current window
// Redis errors let the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	windowNo := l.now().UnixMilli() / l.window.Milliseconds()
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowNo)

	count, err := fixedWindow.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Rate limit check failed, allowing request")
		return true
	}
	return count <= l.requests
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
