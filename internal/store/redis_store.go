package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/models"
	"github.com/redis/go-redis/v9"
)

const locationKeyPrefix = "iploc:"

// RedisLocationStore implements LocationStore using Redis
//
// Key Format: iploc:<ip_address>
// Value: JSON-encoded IPLocation (city, country, latitude, longitude)
type RedisLocationStore struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewRedisLocationStore connects to Redis and verifies the connection
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number
//   - m: metrics collector (may be nil)
func NewRedisLocationStore(addr, password string, db int, m *metrics.Metrics) (*RedisLocationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLocationStore{
		client:  client,
		metrics: m,
	}, nil
}

// FindByIP reads and decodes the location stored for ip
func (s *RedisLocationStore) FindByIP(ctx context.Context, ip string) (location *models.IPLocation, err error) {
	defer func(start time.Time) { observe(s.metrics, "redis", "find_by_ip", start, err) }(time.Now())

	val, err := s.client.Get(ctx, locationKeyPrefix+ip).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	var decoded models.IPLocation
	if err := json.Unmarshal([]byte(val), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode IP location: %w", err)
	}

	// IP has a json:"-" tag; restore it from the key
	decoded.IP = ip

	return &decoded, nil
}

// Set adds or updates a location (no expiration)
func (s *RedisLocationStore) Set(ctx context.Context, location models.IPLocation) error {
	data, err := json.Marshal(location)
	if err != nil {
		return fmt.Errorf("failed to encode IP location: %w", err)
	}

	if err := s.client.Set(ctx, locationKeyPrefix+location.IP, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// LoadFromCSV copies every row of a location CSV into Redis and returns the count
func (s *RedisLocationStore) LoadFromCSV(ctx context.Context, csvPath string) (int, error) {
	csvStore, err := NewLocationCSVStore(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load CSV: %w", err)
	}
	defer csvStore.Close()

	count := 0
	for _, location := range csvStore.All() {
		if err := s.Set(ctx, location); err != nil {
			return count, fmt.Errorf("failed to store IP %s: %w", location.IP, err)
		}
		count++
	}

	return count, nil
}

// IsEmpty reports whether no location keys exist yet
// Iterates with SCAN rather than KEYS so a large keyspace does not block Redis
func (s *RedisLocationStore) IsEmpty(ctx context.Context) (bool, error) {
	iter := s.client.Scan(ctx, 0, locationKeyPrefix+"*", 100).Iterator()
	if iter.Next(ctx) {
		return false, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("failed to check Redis keys: %w", err)
	}
	return true, nil
}

// Close closes the Redis connection
func (s *RedisLocationStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
