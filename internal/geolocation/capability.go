package geolocation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Coordinates is a successful position reading
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64 // metres, 0 when unknown
}

// PositionErrorCode mirrors the numeric codes a position provider reports
type PositionErrorCode int

const (
	CodePermissionDenied    PositionErrorCode = 1
	CodePositionUnavailable PositionErrorCode = 2
	CodeTimeout             PositionErrorCode = 3
)

// PositionError is what a capability hands to the failure callback
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// PositionOptions configures a single position request
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration // accept a cached reading up to this old
}

// DefaultPositionOptions: low accuracy, 10 second timeout, 5 minute cache
var DefaultPositionOptions = PositionOptions{
	EnableHighAccuracy: false,
	Timeout:            10 * time.Second,
	MaximumAge:         5 * time.Minute,
}

// Capability is a position provider
//
// GetCurrentPosition must eventually call exactly one of success or failure.
// It may call back synchronously or from another goroutine.
type Capability interface {
	GetCurrentPosition(success func(Coordinates), failure func(*PositionError), opts PositionOptions)
}

// Host is the environment an Acquirer runs in
type Host interface {
	// Geolocation returns nil when the environment has no position provider
	Geolocation() Capability

	// Origin is where the request comes from; it decides the secure-context check
	Origin() Origin
}

// Origin is the scheme and hostname a request was made against
type Origin struct {
	Scheme   string
	Hostname string
}

// loopback hostnames exempt from the HTTPS requirement
var localHostnames = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// IsSecure is true for https origins and for local development hosts
func (o Origin) IsSecure() bool {
	if strings.EqualFold(o.Scheme, "https") {
		return true
	}
	return localHostnames[strings.ToLower(strings.Trim(o.Hostname, "[]"))]
}

func (o Origin) String() string {
	return o.Scheme + "://" + o.Hostname
}

// ParseOrigin reads an origin from a URL such as "https://dogadopt.co.uk:443/path"
func ParseOrigin(raw string) (Origin, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Origin{}, fmt.Errorf("invalid origin %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Origin{}, fmt.Errorf("invalid origin %q: scheme and host required", raw)
	}
	return Origin{Scheme: strings.ToLower(u.Scheme), Hostname: u.Hostname()}, nil
}

// HostnameFromHostPort strips an optional port from a Host header value
func HostnameFromHostPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return strings.Trim(hostport, "[]")
}

// StaticHost is a Host with fixed parts
type StaticHost struct {
	Capability Capability
	Site       Origin
}

func (h StaticHost) Geolocation() Capability {
	return h.Capability
}

func (h StaticHost) Origin() Origin {
	return h.Site
}
