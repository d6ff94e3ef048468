package geolocation

import (
	"sync"
	"time"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
)

// DefaultIdleTimeout is how long an untouched session survives
const DefaultIdleTimeout = 30 * time.Minute

// session is one visitor's Acquirer plus its last access time
type session struct {
	acquirer *Acquirer
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps one Acquirer per session id
// Thread-safe using sync.Map; idle sessions are dropped lazily.
type Registry struct {
	sessions    sync.Map // map[string]*session
	idleTimeout time.Duration
	options     []Option
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time

	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewRegistry creates an empty registry
//
// Parameters:
//   - idleTimeout: sessions untouched for longer are evicted (<= 0 uses DefaultIdleTimeout)
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
//   - opts: applied to every Acquirer the registry creates
func NewRegistry(idleTimeout time.Duration, m *metrics.Metrics, log *logger.Logger, opts ...Option) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		idleTimeout: idleTimeout,
		options:     opts,
		metrics:     m,
		logger:      log.WithComponent("LocationRegistry"),
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Acquirer returns the session's Acquirer, creating it with newHost if absent
//
// The host is fixed at creation; later calls reuse the existing Acquirer
// and ignore newHost.
func (r *Registry) Acquirer(id string, newHost func() Host) *Acquirer {
	now := r.now()

	if value, ok := r.sessions.Load(id); ok {
		s := value.(*session)
		s.touch(now)
		r.maybeCleanup()
		return s.acquirer
	}

	s := &session{
		acquirer: NewAcquirer(newHost(), r.options...),
		lastSeen: now,
	}
	actual, loaded := r.sessions.LoadOrStore(id, s)
	if !loaded {
		r.logger.Debug().Str("session_id", id).Msg("Location session opened")
		if r.metrics != nil {
			r.metrics.LocationSessionsOpen.Inc()
		}
	}

	r.maybeCleanup()
	return actual.(*session).acquirer
}

// Lookup returns the session's Acquirer without creating one
func (r *Registry) Lookup(id string) (*Acquirer, bool) {
	value, ok := r.sessions.Load(id)
	if !ok {
		return nil, false
	}
	s := value.(*session)
	s.touch(r.now())
	return s.acquirer, true
}

// Remove clears and forgets a session
func (r *Registry) Remove(id string) {
	value, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return
	}
	value.(*session).acquirer.ClearLocation()
	if r.metrics != nil {
		r.metrics.LocationSessionsOpen.Dec()
	}
}

// Len counts live sessions
func (r *Registry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// maybeCleanup evicts idle sessions, at most once per idle timeout
func (r *Registry) maybeCleanup() {
	r.cleanupMu.Lock()
	defer r.cleanupMu.Unlock()

	now := r.now()
	if now.Sub(r.lastCleanup) < r.idleTimeout {
		return
	}

	threshold := now.Add(-r.idleTimeout)
	evicted := 0
	r.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		if s.idleSince().Before(threshold) {
			if _, ok := r.sessions.LoadAndDelete(key); ok {
				s.acquirer.ClearLocation()
				evicted++
			}
		}
		return true
	})

	if evicted > 0 {
		r.logger.Debug().Int("evicted", evicted).Msg("Idle location sessions evicted")
		if r.metrics != nil {
			r.metrics.LocationSessionsOpen.Sub(float64(evicted))
		}
	}
	r.lastCleanup = now
}
