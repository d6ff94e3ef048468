// Package query caches fetch results by key the way a front-end query
// client does: concurrent fetches for one key share a single call, fresh
// results are served from memory, and failures are never cached.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleTime applies when a Client is built with a non-positive stale time
const DefaultStaleTime = 30 * time.Second

type entry struct {
	value     any
	fetchedAt time.Time
}

// Client holds the cached results
type Client struct {
	staleTime time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewClient creates a query client
// m and log may be nil
func NewClient(staleTime time.Duration, m *metrics.Metrics, log *logger.Logger) *Client {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		staleTime: staleTime,
		now:       time.Now,
		entries:   make(map[string]entry),
		metrics:   m,
		logger:    log.WithComponent("QueryClient"),
	}
}

// Fetch returns the cached value for key while it is fresh, otherwise calls fn
//
// Concurrent callers of one key share the in-flight call. An error from fn
// is returned as-is to every waiting caller and leaves the cache untouched;
// a stale value is never handed out in place of a failed fetch.
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	if value, ok := c.lookup(key); ok {
		if typed, ok := value.(T); ok {
			c.record(key, "hit")
			return typed, nil
		}
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, value)
		return value, nil
	})

	if shared {
		c.record(key, "shared")
	} else {
		c.record(key, "miss")
	}

	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Query failed")
		var zero T
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %q: cached %T, want %T", key, result, zero)
	}
	return typed, nil
}

// Invalidate drops the cached value for key so the next Fetch calls through
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every cached value
func (c *Client) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Client) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *Client) store(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
}

func (c *Client) record(key, result string) {
	if c.metrics != nil {
		c.metrics.QueryCacheResults.WithLabelValues(key, result).Inc()
	}
}
