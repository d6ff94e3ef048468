// Package geolocation turns a callback-style position capability into an
// observable state: idle, loading, success with coordinates, or failure
// with a fixed user-facing message.
package geolocation

// User-facing failure messages
const (
	MsgUnsupported         = "Geolocation is not supported by your browser"
	MsgInsecureContext     = "Geolocation requires a secure connection (HTTPS)"
	MsgPermissionDenied    = "Location permission denied. Please enable location access in your browser settings."
	MsgPositionUnavailable = "Location information is unavailable."
	MsgTimeout             = "Location request timed out. Please try again."
	MsgUnknown             = "Unable to retrieve your location"
)

// ErrorKind classifies a failed location request
type ErrorKind int

const (
	NoError ErrorKind = iota
	Unsupported
	InsecureContext
	PermissionDenied
	PositionUnavailable
	Timeout
	Unknown
)

var kindMessages = map[ErrorKind]string{
	Unsupported:         MsgUnsupported,
	InsecureContext:     MsgInsecureContext,
	PermissionDenied:    MsgPermissionDenied,
	PositionUnavailable: MsgPositionUnavailable,
	Timeout:             MsgTimeout,
	Unknown:             MsgUnknown,
}

var kindNames = map[ErrorKind]string{
	NoError:             "none",
	Unsupported:         "unsupported",
	InsecureContext:     "insecure_context",
	PermissionDenied:    "permission_denied",
	PositionUnavailable: "position_unavailable",
	Timeout:             "timeout",
	Unknown:             "unknown",
}

// Message returns the fixed message shown for this kind
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return ""
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindForCode maps a capability error code; unrecognised codes become Unknown
func KindForCode(code PositionErrorCode) ErrorKind {
	switch code {
	case CodePermissionDenied:
		return PermissionDenied
	case CodePositionUnavailable:
		return PositionUnavailable
	case CodeTimeout:
		return Timeout
	default:
		return Unknown
	}
}

// Phase is the state machine position
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "idle"
	}
}

// State is a snapshot of a location request
//
// Invariants: Loading implies no coordinates and no error, and coordinates
// and error are never both set. Absent values encode as JSON null.
type State struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     *string  `json:"error"`
	Loading   bool     `json:"loading"`

	kind ErrorKind
}

func idleState() State {
	return State{}
}

func loadingState() State {
	return State{Loading: true}
}

func successState(latitude, longitude float64) State {
	return State{Latitude: &latitude, Longitude: &longitude}
}

func failureState(kind ErrorKind) State {
	msg := kind.Message()
	return State{Error: &msg, kind: kind}
}

// HasLocation is true iff both coordinates are set
func (s State) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Phase derives the state machine position from the fields
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != nil:
		return PhaseFailure
	case s.HasLocation():
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// Kind is NoError unless the state is a failure
func (s State) Kind() ErrorKind {
	return s.kind
}

// clone returns a copy that shares no pointers with s
func (s State) clone() State {
	out := State{Loading: s.Loading, kind: s.kind}
	if s.Latitude != nil {
		lat := *s.Latitude
		out.Latitude = &lat
	}
	if s.Longitude != nil {
		lon := *s.Longitude
		out.Longitude = &lon
	}
	if s.Error != nil {
		msg := *s.Error
		out.Error = &msg
	}
	return out
}
