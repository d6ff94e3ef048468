package geolocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeCapability answers synchronously when respond is set,
// otherwise it holds the callbacks until the test releases them
type fakeCapability struct {
	mu       sync.Mutex
	calls    int
	lastOpts PositionOptions
	respond  func(success func(Coordinates), failure func(*PositionError))

	successes []func(Coordinates)
	failures  []func(*PositionError)
}

func (f *fakeCapability) GetCurrentPosition(success func(Coordinates), failure func(*PositionError), opts PositionOptions) {
	f.mu.Lock()
	f.calls++
	f.lastOpts = opts
	respond := f.respond
	if respond == nil {
		f.successes = append(f.successes, success)
		f.failures = append(f.failures, failure)
	}
	f.mu.Unlock()

	if respond != nil {
		respond(success, failure)
	}
}

func (f *fakeCapability) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCapability) succeed(i int, c Coordinates) {
	f.mu.Lock()
	cb := f.successes[i]
	f.mu.Unlock()
	cb(c)
}

func (f *fakeCapability) fail(i int, code PositionErrorCode) {
	f.mu.Lock()
	cb := f.failures[i]
	f.mu.Unlock()
	cb(&PositionError{Code: code, Message: "test"})
}

func succeedWith(lat, lon float64) func(func(Coordinates), func(*PositionError)) {
	return func(success func(Coordinates), _ func(*PositionError)) {
		success(Coordinates{Latitude: lat, Longitude: lon})
	}
}

func failWith(code PositionErrorCode) func(func(Coordinates), func(*PositionError)) {
	return func(_ func(Coordinates), failure func(*PositionError)) {
		failure(&PositionError{Code: code, Message: "test"})
	}
}

var secureOrigin = Origin{Scheme: "https", Hostname: "dogadopt.co.uk"}

func assertFailure(t *testing.T, s State, wantMsg string) {
	t.Helper()
	if s.Loading {
		t.Error("expected loading to be false")
	}
	if s.Latitude != nil || s.Longitude != nil {
		t.Errorf("expected no coordinates, got %v / %v", s.Latitude, s.Longitude)
	}
	if s.Error == nil {
		t.Fatalf("expected error %q, got none", wantMsg)
	}
	if *s.Error != wantMsg {
		t.Errorf("expected error %q, got %q", wantMsg, *s.Error)
	}
}

// TestNewAcquirer_Idle tests the initial state
func TestNewAcquirer_Idle(t *testing.T) {
	a := NewAcquirer(StaticHost{Capability: &fakeCapability{}, Site: secureOrigin})

	s := a.State()
	if s.Phase() != PhaseIdle {
		t.Errorf("expected idle, got %s", s.Phase())
	}
	if s.Latitude != nil || s.Longitude != nil || s.Error != nil || s.Loading {
		t.Errorf("expected empty state, got %+v", s)
	}
	if a.HasLocation() {
		t.Error("expected HasLocation to be false")
	}
}

// TestRequestLocation_Unsupported tests a host with no capability
func TestRequestLocation_Unsupported(t *testing.T) {
	a := NewAcquirer(StaticHost{Site: secureOrigin})

	p := a.RequestLocation()

	// Applied before RequestLocation returns
	assertFailure(t, a.State(), "Geolocation is not supported by your browser")
	if a.HasLocation() {
		t.Error("expected HasLocation to be false")
	}

	select {
	case <-p.Done():
	default:
		t.Fatal("expected pending to be resolved already")
	}
	assertFailure(t, p.State(), MsgUnsupported)
	if a.State().Kind() != Unsupported {
		t.Errorf("expected kind Unsupported, got %s", a.State().Kind())
	}
}

// TestRequestLocation_InsecureContext tests the HTTPS requirement
func TestRequestLocation_InsecureContext(t *testing.T) {
	tests := []struct {
		name     string
		origin   Origin
		insecure bool
	}{
		{"plain http on public host", Origin{Scheme: "http", Hostname: "dogadopt.co.uk"}, true},
		{"plain http on LAN address", Origin{Scheme: "http", Hostname: "192.168.1.20"}, true},
		{"https", Origin{Scheme: "https", Hostname: "dogadopt.co.uk"}, false},
		{"http localhost", Origin{Scheme: "http", Hostname: "localhost"}, false},
		{"http 127.0.0.1", Origin{Scheme: "http", Hostname: "127.0.0.1"}, false},
		{"http ::1", Origin{Scheme: "http", Hostname: "::1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability := &fakeCapability{respond: succeedWith(51.5, -0.12)}
			a := NewAcquirer(StaticHost{Capability: capability, Site: tt.origin})

			a.RequestLocation()

			if tt.insecure {
				assertFailure(t, a.State(), "Geolocation requires a secure connection (HTTPS)")
				if capability.Calls() != 0 {
					t.Errorf("expected capability not to be called, got %d calls", capability.Calls())
				}
				return
			}

			if capability.Calls() != 1 {
				t.Errorf("expected 1 capability call, got %d", capability.Calls())
			}
			if !a.HasLocation() {
				t.Error("expected a location")
			}
		})
	}
}

// TestRequestLocation_Success tests a successful reading
func TestRequestLocation_Success(t *testing.T) {
	capability := &fakeCapability{respond: succeedWith(51.5, -0.12)}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	p := a.RequestLocation()
	s, err := p.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Latitude == nil || *s.Latitude != 51.5 {
		t.Errorf("expected latitude 51.5, got %v", s.Latitude)
	}
	if s.Longitude == nil || *s.Longitude != -0.12 {
		t.Errorf("expected longitude -0.12, got %v", s.Longitude)
	}
	if s.Error != nil || s.Loading {
		t.Errorf("expected no error and not loading, got %+v", s)
	}
	if !a.HasLocation() {
		t.Error("expected HasLocation to be true")
	}
	if a.State().Phase() != PhaseSuccess {
		t.Errorf("expected success, got %s", a.State().Phase())
	}
}

// TestRequestLocation_ErrorCodes tests the message for each capability code
func TestRequestLocation_ErrorCodes(t *testing.T) {
	tests := []struct {
		code     PositionErrorCode
		expected string
		kind     ErrorKind
	}{
		{1, "Location permission denied. Please enable location access in your browser settings.", PermissionDenied},
		{2, "Location information is unavailable.", PositionUnavailable},
		{3, "Location request timed out. Please try again.", Timeout},
		{0, "Unable to retrieve your location", Unknown},
		{42, "Unable to retrieve your location", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			capability := &fakeCapability{respond: failWith(tt.code)}
			a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

			a.RequestLocation()

			assertFailure(t, a.State(), tt.expected)
			if a.State().Kind() != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, a.State().Kind())
			}
		})
	}
}

// TestRequestLocation_NilPositionError tests a capability that fails without detail
func TestRequestLocation_NilPositionError(t *testing.T) {
	capability := &fakeCapability{respond: func(_ func(Coordinates), failure func(*PositionError)) {
		failure(nil)
	}}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	a.RequestLocation()

	assertFailure(t, a.State(), MsgUnknown)
}

// TestRequestLocation_Loading tests the in-flight state
func TestRequestLocation_Loading(t *testing.T) {
	capability := &fakeCapability{}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	// Seed a success so we can see it cleared by the next request
	a.state = successState(1, 2)

	p := a.RequestLocation()

	s := a.State()
	if !s.Loading {
		t.Fatal("expected loading")
	}
	if s.Latitude != nil || s.Longitude != nil || s.Error != nil {
		t.Errorf("expected loading to carry nothing else, got %+v", s)
	}
	if a.HasLocation() {
		t.Error("expected HasLocation to be false while loading")
	}
	if !p.State().Loading {
		t.Error("expected unresolved pending to report loading")
	}

	capability.succeed(0, Coordinates{Latitude: 53.8, Longitude: -1.55})

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pending never resolved")
	}
	if got := *a.State().Latitude; got != 53.8 {
		t.Errorf("expected latitude 53.8, got %v", got)
	}
}

// TestRequestLocation_JoinsInFlight tests that overlapping requests share one capability call
func TestRequestLocation_JoinsInFlight(t *testing.T) {
	capability := &fakeCapability{}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	p1 := a.RequestLocation()
	p2 := a.RequestLocation()

	if p1 != p2 {
		t.Error("expected the second request to join the first")
	}
	if capability.Calls() != 1 {
		t.Errorf("expected 1 capability call, got %d", capability.Calls())
	}

	capability.fail(0, CodeTimeout)

	s2, err := p2.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertFailure(t, s2, MsgTimeout)
}

// TestRequestLocation_AfterFailure tests that a new request starts from loading again
func TestRequestLocation_AfterFailure(t *testing.T) {
	capability := &fakeCapability{respond: failWith(CodePermissionDenied)}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	a.RequestLocation()
	assertFailure(t, a.State(), MsgPermissionDenied)

	capability.mu.Lock()
	capability.respond = succeedWith(51.5, -0.12)
	capability.mu.Unlock()

	a.RequestLocation()

	s := a.State()
	if s.Error != nil {
		t.Errorf("expected error cleared, got %q", *s.Error)
	}
	if !a.HasLocation() {
		t.Error("expected a location after retry")
	}
	if capability.Calls() != 2 {
		t.Errorf("expected 2 capability calls, got %d", capability.Calls())
	}
}

// TestClearLocation tests reset to idle from each state
func TestClearLocation(t *testing.T) {
	tests := []struct {
		name    string
		respond func(func(Coordinates), func(*PositionError))
		host    StaticHost
	}{
		{"from success", succeedWith(51.5, -0.12), StaticHost{Site: secureOrigin}},
		{"from failure", failWith(CodePositionUnavailable), StaticHost{Site: secureOrigin}},
		{"from unsupported", nil, StaticHost{Site: secureOrigin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := tt.host
			if tt.respond != nil {
				host.Capability = &fakeCapability{respond: tt.respond}
			}
			a := NewAcquirer(host)

			a.RequestLocation()
			a.ClearLocation()

			s := a.State()
			if s.Phase() != PhaseIdle {
				t.Errorf("expected idle, got %s", s.Phase())
			}
			if s.Latitude != nil || s.Longitude != nil || s.Error != nil || s.Loading {
				t.Errorf("expected empty state, got %+v", s)
			}
			if a.HasLocation() {
				t.Error("expected HasLocation to be false")
			}
		})
	}
}

// TestClearLocation_DuringLoading tests that a cleared request's late answer is dropped
func TestClearLocation_DuringLoading(t *testing.T) {
	capability := &fakeCapability{}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	p := a.RequestLocation()
	a.ClearLocation()

	select {
	case <-p.Done():
	default:
		t.Fatal("expected abandoned pending to resolve at clear time")
	}
	if p.State().Phase() != PhaseIdle {
		t.Errorf("expected abandoned pending to resolve idle, got %s", p.State().Phase())
	}

	capability.succeed(0, Coordinates{Latitude: 51.5, Longitude: -0.12})

	if a.HasLocation() {
		t.Error("expected late callback to be ignored")
	}
	if a.State().Phase() != PhaseIdle {
		t.Errorf("expected idle, got %s", a.State().Phase())
	}

	// A fresh request goes back to the capability
	a.RequestLocation()
	if capability.Calls() != 2 {
		t.Errorf("expected 2 capability calls, got %d", capability.Calls())
	}
}

// TestRequestLocation_IgnoresSecondCallback tests a capability that answers twice
func TestRequestLocation_IgnoresSecondCallback(t *testing.T) {
	capability := &fakeCapability{respond: func(success func(Coordinates), failure func(*PositionError)) {
		success(Coordinates{Latitude: 51.5, Longitude: -0.12})
		failure(&PositionError{Code: CodeTimeout})
	}}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	a.RequestLocation()

	if !a.HasLocation() || a.State().Error != nil {
		t.Errorf("expected the first answer to stand, got %+v", a.State())
	}
}

// TestRequestLocation_PassesOptions tests default and overridden position options
func TestRequestLocation_PassesOptions(t *testing.T) {
	capability := &fakeCapability{respond: succeedWith(0, 0)}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})
	a.RequestLocation()

	if capability.lastOpts != DefaultPositionOptions {
		t.Errorf("expected default options, got %+v", capability.lastOpts)
	}
	if capability.lastOpts.EnableHighAccuracy || capability.lastOpts.Timeout != 10*time.Second || capability.lastOpts.MaximumAge != 5*time.Minute {
		t.Errorf("unexpected default values: %+v", capability.lastOpts)
	}

	custom := PositionOptions{EnableHighAccuracy: true, Timeout: time.Second}
	a = NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin}, WithPositionOptions(custom))
	a.RequestLocation()

	if capability.lastOpts != custom {
		t.Errorf("expected custom options, got %+v", capability.lastOpts)
	}
}

// TestPending_WaitContext tests giving up on an unresolved request
func TestPending_WaitContext(t *testing.T) {
	a := NewAcquirer(StaticHost{Capability: &fakeCapability{}, Site: secureOrigin})
	p := a.RequestLocation()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	s, err := p.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if !s.Loading {
		t.Error("expected loading state on timeout")
	}
	if !a.State().Loading {
		t.Error("expected acquirer to still be loading")
	}
}

// TestState_Isolation tests that snapshots do not alias internal state
func TestState_Isolation(t *testing.T) {
	a := NewAcquirer(StaticHost{Capability: &fakeCapability{respond: succeedWith(51.5, -0.12)}, Site: secureOrigin})
	a.RequestLocation()

	s := a.State()
	*s.Latitude = 0

	if got := *a.State().Latitude; got != 51.5 {
		t.Errorf("expected internal latitude unchanged, got %v", got)
	}
}

// TestAcquirer_Metrics tests outcome counters
func TestAcquirer_Metrics(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	NewAcquirer(StaticHost{Site: secureOrigin}, WithMetrics(m)).RequestLocation()
	NewAcquirer(StaticHost{Capability: &fakeCapability{respond: succeedWith(1, 1)}, Site: secureOrigin}, WithMetrics(m)).RequestLocation()
	NewAcquirer(StaticHost{Capability: &fakeCapability{respond: failWith(1)}, Site: secureOrigin}, WithMetrics(m)).RequestLocation()

	for outcome, want := range map[string]float64{"unsupported": 1, "success": 1, "permission_denied": 1} {
		if got := testutil.ToFloat64(m.GeolocationOutcomes.WithLabelValues(outcome)); got != want {
			t.Errorf("outcome %s: expected %v, got %v", outcome, want, got)
		}
	}
}

// TestRequestLocation_Concurrent tests many goroutines requesting at once
func TestRequestLocation_Concurrent(t *testing.T) {
	capability := &fakeCapability{}
	a := NewAcquirer(StaticHost{Capability: capability, Site: secureOrigin})

	var wg sync.WaitGroup
	pendings := make([]*Pending, 20)
	for i := range pendings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pendings[i] = a.RequestLocation()
		}(i)
	}
	wg.Wait()

	if capability.Calls() != 1 {
		t.Fatalf("expected 1 capability call, got %d", capability.Calls())
	}

	capability.succeed(0, Coordinates{Latitude: 51.5, Longitude: -0.12})

	for i, p := range pendings {
		s, err := p.Wait(context.Background())
		if err != nil || !s.HasLocation() {
			t.Errorf("pending %d: expected location, got %+v (%v)", i, s, err)
		}
	}
}
