package store

import (
	"context"
	"errors"
	"time"

	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/models"
)

// ErrNotFound is returned when a lookup key has no record
var ErrNotFound = errors.New("IP address not found")

// ListingStore is the read side of the dogs and rescues tables
// Implementations: SQL (MySQL or Postgres through GORM), CSV, and a mock for tests
type ListingStore interface {
	// ListDogs returns every dog joined with its rescue (id, name, region, website),
	// newest first by creation time
	ListDogs(ctx context.Context) ([]models.DogRow, error)

	// ListRescues returns every rescue ordered by name ascending
	ListRescues(ctx context.Context) ([]models.Rescue, error)

	// Close cleans up resources (database connections, file handles, etc.)
	Close() error
}

// LocationStore resolves an IP address to an approximate position
type LocationStore interface {
	// FindByIP returns ErrNotFound when the IP is unknown
	FindByIP(ctx context.Context, ip string) (*models.IPLocation, error)

	Close() error
}

// observe records one datastore call; m may be nil
func observe(m *metrics.Metrics, datastore, operation string, start time.Time, err error) {
	if m == nil {
		return
	}

	status := "success"
	if errors.Is(err, ErrNotFound) {
		status = "not_found"
	} else if err != nil {
		status = "error"
	}

	m.DatastoreQueriesTotal.WithLabelValues(datastore, operation, status).Inc()
	m.DatastoreQueryDuration.WithLabelValues(datastore, operation).Observe(time.Since(start).Seconds())
}
