// Package locator provides a geolocation capability backed by an IP
// address lookup, for sessions that ask the server where they are.
package locator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dogadopt/dogadopt/internal/geolocation"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/store"
	"github.com/go-playground/validator/v10"
)

// IP lookups resolve to a city, not a street
const ipAccuracyMetres = 25000

type reading struct {
	coords geolocation.Coordinates
	at     time.Time
}

// Locator resolves client IPs to coordinates through a LocationStore
// Readings are kept per IP so requests within MaximumAge skip the store.
// Readings older than the largest MaximumAge seen are swept on later writes.
type Locator struct {
	store     store.LocationStore
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	readings  map[string]reading
	retention time.Duration
	lastSweep time.Time
}

// New creates a Locator
//
// Parameters:
//   - store: where IP positions are looked up
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func New(store store.LocationStore, m *metrics.Metrics, log *logger.Logger) *Locator {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Locator{
		store:     store,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("Locator"),
		now:       time.Now,
		readings:  make(map[string]reading),
	}
}

// For returns the capability for one client
// optedOut clients are always refused with a permission-denied error.
func (l *Locator) For(ip string, optedOut bool) geolocation.Capability {
	return &ipCapability{locator: l, ip: ip, optedOut: optedOut}
}

// Close releases the underlying store
func (l *Locator) Close() error {
	return l.store.Close()
}

type ipCapability struct {
	locator  *Locator
	ip       string
	optedOut bool
}

// GetCurrentPosition answers from a goroutine, never synchronously
func (c *ipCapability) GetCurrentPosition(success func(geolocation.Coordinates), failure func(*geolocation.PositionError), opts geolocation.PositionOptions) {
	go func() {
		coords, err := c.locator.locate(c.ip, c.optedOut, opts)
		if err != nil {
			failure(err)
			return
		}
		success(coords)
	}()
}

func (l *Locator) locate(ip string, optedOut bool, opts geolocation.PositionOptions) (geolocation.Coordinates, *geolocation.PositionError) {
	if optedOut {
		return geolocation.Coordinates{}, &geolocation.PositionError{
			Code:    geolocation.CodePermissionDenied,
			Message: "client opted out of location sharing",
		}
	}

	if err := l.validator.Var(ip, "required,ip"); err != nil {
		return geolocation.Coordinates{}, &geolocation.PositionError{
			Code:    geolocation.CodePositionUnavailable,
			Message: "no usable client address",
		}
	}

	if coords, ok := l.cached(ip, opts.MaximumAge); ok {
		l.logger.Debug().Str("ip", ip).Msg("Serving cached position")
		if l.metrics != nil {
			l.metrics.LocationLookupsCached.Inc()
		}
		return coords, nil
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	location, err := l.store.FindByIP(ctx, ip)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		l.logger.Warn().Str("ip", ip).Dur("timeout", opts.Timeout).Msg("Position lookup timed out")
		return geolocation.Coordinates{}, &geolocation.PositionError{
			Code:    geolocation.CodeTimeout,
			Message: "position lookup timed out",
		}
	case errors.Is(err, store.ErrNotFound):
		return geolocation.Coordinates{}, &geolocation.PositionError{
			Code:    geolocation.CodePositionUnavailable,
			Message: "no position known for address",
		}
	case err != nil:
		l.logger.Error().Err(err).Str("ip", ip).Msg("Position lookup failed")
		return geolocation.Coordinates{}, &geolocation.PositionError{Message: err.Error()}
	}

	coords := geolocation.Coordinates{
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Accuracy:  ipAccuracyMetres,
	}

	if opts.MaximumAge > 0 {
		l.remember(ip, coords, opts.MaximumAge)
	}

	return coords, nil
}

// remember stores a reading and drops expired ones at most once per retention period
func (l *Locator) remember(ip string, coords geolocation.Coordinates, maxAge time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if maxAge > l.retention {
		l.retention = maxAge
	}
	l.readings[ip] = reading{coords: coords, at: now}

	if now.Sub(l.lastSweep) < l.retention {
		return
	}
	l.lastSweep = now

	for key, r := range l.readings {
		if now.Sub(r.at) > l.retention {
			delete(l.readings, key)
		}
	}
}

// cached returns a reading no older than maxAge; maxAge 0 disables the cache
func (l *Locator) cached(ip string, maxAge time.Duration) (geolocation.Coordinates, bool) {
	if maxAge <= 0 {
		return geolocation.Coordinates{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.readings[ip]
	if !ok || l.now().Sub(r.at) > maxAge {
		return geolocation.Coordinates{}, false
	}
	return r.coords, true
}
