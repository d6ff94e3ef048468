package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dogadopt/dogadopt/internal/geolocation"
	"github.com/dogadopt/dogadopt/internal/locator"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/middleware"
	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
)

// SessionCookie carries the location session id
const SessionCookie = "dogadopt_session"

// geohashPrecision 7 is a cell of roughly 150m
const geohashPrecision = 7

// maxWait bounds ?wait=true beyond the capability's own timeout
const maxWait = 15 * time.Second

// LocationResponse is a location state as the API returns it
type LocationResponse struct {
	geolocation.State
	HasLocation bool   `json:"hasLocation"`
	Geohash     string `json:"geohash,omitempty"`
}

func newLocationResponse(s geolocation.State) LocationResponse {
	resp := LocationResponse{State: s, HasLocation: s.HasLocation()}
	if resp.HasLocation {
		resp.Geohash = geohash.EncodeWithPrecision(*s.Latitude, *s.Longitude, geohashPrecision)
	}
	return resp
}

// LocationHandler exposes one Acquirer per browser session
type LocationHandler struct {
	registry *geolocation.Registry
	locator  *locator.Locator // nil when no location store is configured
	logger   *logger.Logger

	// trustProxyHeaders honours X-Forwarded-Proto from a TLS-terminating proxy
	trustProxyHeaders bool
}

// NewLocationHandler creates a location handler
// With a nil locator every session reports geolocation as unsupported.
// trustProxyHeaders should only be set when a proxy in front of the server
// overwrites X-Forwarded-Proto.
func NewLocationHandler(registry *geolocation.Registry, loc *locator.Locator, trustProxyHeaders bool, log *logger.Logger) *LocationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LocationHandler{
		registry:          registry,
		locator:           loc,
		logger:            log.WithComponent("LocationHandler"),
		trustProxyHeaders: trustProxyHeaders,
	}
}

// RequestLocation handles POST /v1/location
// @Summary      Request the visitor's location
// @Description  Starts a location request for the session. Returns 202 while it is in flight, or 200 with the outcome. With wait=true the call blocks until the outcome is known.
// @Tags         Location
// @Produce      json
// @Param        wait  query     bool  false  "Block until the request resolves"
// @Success      200   {object}  LocationResponse  "Terminal state (success or failure)"
// @Success      202   {object}  LocationResponse  "Request in flight"
// @Failure      429   {object}  models.ErrorResponse  "Rate limit exceeded"
// @Router       /v1/location [post]
func (h *LocationHandler) RequestLocation(w http.ResponseWriter, r *http.Request) {
	id := h.session(w, r)
	log := h.logger.WithSession(id)

	acquirer := h.registry.Acquirer(id, func() geolocation.Host {
		return h.hostFor(r)
	})
	pending := acquirer.RequestLocation()

	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()

		state, err := pending.Wait(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Gave up waiting for location")
			respondJSON(w, http.StatusAccepted, newLocationResponse(state))
			return
		}
		respondJSON(w, http.StatusOK, newLocationResponse(state))
		return
	}

	state := acquirer.State()
	status := http.StatusOK
	if state.Loading {
		status = http.StatusAccepted
	}
	respondJSON(w, status, newLocationResponse(state))
}

// GetLocation handles GET /v1/location
// @Summary      Current location state
// @Description  The session's location state. Sessions that never asked are idle.
// @Tags         Location
// @Produce      json
// @Success      200  {object}  LocationResponse
// @Failure      429  {object}  models.ErrorResponse  "Rate limit exceeded"
// @Router       /v1/location [get]
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	var state geolocation.State
	if acquirer, ok := h.lookup(r); ok {
		state = acquirer.State()
	}
	respondJSON(w, http.StatusOK, newLocationResponse(state))
}

// ClearLocation handles DELETE /v1/location
// @Summary      Forget the visitor's location
// @Description  Resets the session to idle, abandoning any request in flight
// @Tags         Location
// @Produce      json
// @Success      200  {object}  LocationResponse
// @Failure      429  {object}  models.ErrorResponse  "Rate limit exceeded"
// @Router       /v1/location [delete]
func (h *LocationHandler) ClearLocation(w http.ResponseWriter, r *http.Request) {
	var state geolocation.State
	if acquirer, ok := h.lookup(r); ok {
		acquirer.ClearLocation()
		state = acquirer.State()
	}
	respondJSON(w, http.StatusOK, newLocationResponse(state))
}

func (h *LocationHandler) lookup(r *http.Request) (*geolocation.Acquirer, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return h.registry.Lookup(cookie.Value)
}

// session returns the request's session id, issuing a cookie for a new one
func (h *LocationHandler) session(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.requestOrigin(r).Scheme == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// hostFor describes the environment of the request that opens a session
func (h *LocationHandler) hostFor(r *http.Request) geolocation.Host {
	host := geolocation.StaticHost{Site: h.requestOrigin(r)}
	if h.locator != nil {
		optedOut := r.Header.Get("Sec-GPC") == "1"
		host.Capability = h.locator.For(middleware.ClientIP(r), optedOut)
	}
	return host
}

// requestOrigin reads the scheme from TLS, or from X-Forwarded-Proto behind a trusted proxy
func (h *LocationHandler) requestOrigin(r *http.Request) geolocation.Origin {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if h.trustProxyHeaders && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return geolocation.Origin{
		Scheme:   scheme,
		Hostname: geolocation.HostnameFromHostPort(r.Host),
	}
}
