// Package limiter throttles API clients by key (normally the client IP).
package limiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dogadopt/dogadopt/internal/logger"
)

// Limiter decides whether one more request from key fits its budget
type Limiter interface {
	Allow(ctx context.Context, key string) bool

	// Close cleans up any resources (Redis connections, etc.)
	Close() error
}

// Config describes a budget of Requests per Window for each key
type Config struct {
	Type     string // "memory" or "redis"
	Requests int
	Window   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// perSecond converts the budget to a refill rate
func (c Config) perSecond() float64 {
	window := c.Window
	if window <= 0 {
		window = time.Second
	}
	return float64(c.Requests) / window.Seconds()
}

// New builds the limiter named by cfg.Type
func New(cfg Config, log *logger.Logger) (Limiter, error) {
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", cfg.Requests)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "memory", "":
		return NewMemoryLimiter(cfg.perSecond(), float64(cfg.Requests)), nil

	case "redis":
		lim, err := NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Requests, cfg.Window, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return lim, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
