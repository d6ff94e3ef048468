package geolocation

import (
	"context"
	"sync"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
)

// Pending is an outstanding location request
// It resolves once, to a Success, Failure or (if cleared) Idle state.
type Pending struct {
	done  chan struct{}
	once  sync.Once
	state State
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolvedPending(s State) *Pending {
	p := newPending()
	p.settle(s)
	return p
}

func (p *Pending) settle(s State) {
	p.once.Do(func() {
		p.state = s
		close(p.done)
	})
}

// Done is closed when the request has resolved
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// State returns the resolved state, or a loading state while unresolved
func (p *Pending) State() State {
	select {
	case <-p.done:
		return p.state.clone()
	default:
		return loadingState()
	}
}

// Wait blocks until the request resolves or ctx ends
func (p *Pending) Wait(ctx context.Context) (State, error) {
	select {
	case <-p.done:
		return p.state.clone(), nil
	case <-ctx.Done():
		return loadingState(), ctx.Err()
	}
}

// Acquirer owns one location state and drives it through requests
//
//	Idle/Success/Failure --RequestLocation--> Loading --callback--> Success | Failure
//	any --ClearLocation--> Idle
//
// The two precondition checks (no capability, insecure origin) go straight
// to Failure without entering Loading. A request made while another is
// outstanding joins it instead of starting a second one.
type Acquirer struct {
	host    Host
	options PositionOptions
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	state   State
	pending *Pending
}

// Option configures an Acquirer
type Option func(*Acquirer)

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(a *Acquirer) {
		if log != nil {
			a.logger = log.WithComponent("Acquirer")
		}
	}
}

// WithMetrics records terminal outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Acquirer) {
		a.metrics = m
	}
}

// WithPositionOptions overrides DefaultPositionOptions
func WithPositionOptions(opts PositionOptions) Option {
	return func(a *Acquirer) {
		a.options = opts
	}
}

// NewAcquirer creates an idle Acquirer for host
func NewAcquirer(host Host, opts ...Option) *Acquirer {
	a := &Acquirer{
		host:    host,
		options: DefaultPositionOptions,
		logger:  logger.Nop(),
		state:   idleState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestLocation starts a position request and returns its Pending
//
// Precondition failures are applied before this returns and come back
// already resolved. Otherwise the state is Loading by the time the
// capability is called, and the lock is not held while it runs so a
// synchronous callback is safe.
func (a *Acquirer) RequestLocation() *Pending {
	a.mu.Lock()

	if a.pending != nil {
		p := a.pending
		a.mu.Unlock()
		a.logger.Debug().Msg("Location request already in flight, joining it")
		return p
	}

	capability := a.host.Geolocation()
	if capability == nil {
		return a.failLocked(Unsupported)
	}

	if origin := a.host.Origin(); !origin.IsSecure() {
		a.logger.Warn().Str("origin", origin.String()).Msg("Refusing location request on insecure origin")
		return a.failLocked(InsecureContext)
	}

	p := newPending()
	a.pending = p
	a.state = loadingState()
	options := a.options
	a.mu.Unlock()

	a.logger.Info().Msg("Requesting location...")

	capability.GetCurrentPosition(
		func(c Coordinates) {
			a.resolve(p, successState(c.Latitude, c.Longitude))
		},
		func(err *PositionError) {
			code := PositionErrorCode(0)
			msg := ""
			if err != nil {
				code, msg = err.Code, err.Message
			}
			a.logger.Error().Int("code", int(code)).Str("reason", msg).Msg("Geolocation error")
			a.resolve(p, failureState(KindForCode(code)))
		},
		options,
	)

	return p
}

// ClearLocation resets to Idle from any state
// An outstanding request is abandoned: its Pending resolves to Idle now and
// its eventual callback is ignored.
func (a *Acquirer) ClearLocation() {
	a.mu.Lock()
	p := a.pending
	a.pending = nil
	a.state = idleState()
	a.mu.Unlock()

	if p != nil {
		a.logger.Debug().Msg("Abandoning in-flight location request")
		p.settle(idleState())
	}
}

// State returns a snapshot of the current state
func (a *Acquirer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clone()
}

// HasLocation is true iff the current state carries both coordinates
func (a *Acquirer) HasLocation() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.HasLocation()
}

// failLocked applies a precondition failure; a.mu must be held and is released
func (a *Acquirer) failLocked(kind ErrorKind) *Pending {
	s := failureState(kind)
	a.state = s
	a.mu.Unlock()

	a.observe(s)
	return resolvedPending(s)
}

// resolve applies a callback result if p is still the outstanding request
func (a *Acquirer) resolve(p *Pending, next State) {
	a.mu.Lock()
	if a.pending != p {
		// Cleared meanwhile, or a second callback for the same request
		a.mu.Unlock()
		return
	}
	a.state = next
	a.pending = nil
	a.mu.Unlock()

	if next.HasLocation() {
		a.logger.Info().
			Float64("latitude", *next.Latitude).
			Float64("longitude", *next.Longitude).
			Msg("Location acquired")
	}

	a.observe(next)
	p.settle(next)
}

func (a *Acquirer) observe(s State) {
	if a.metrics == nil {
		return
	}
	outcome := "success"
	if s.Phase() == PhaseFailure {
		outcome = s.Kind().String()
	}
	a.metrics.GeolocationOutcomes.WithLabelValues(outcome).Inc()
}
