package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dogadopt/dogadopt/internal/limiter"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
})

// TestClientIP tests address extraction
func TestClientIP(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xRealIP       string
		xForwardedFor string
		expected      string
	}{
		{name: "RemoteAddr only", remoteAddr: "192.168.1.1:12345", expected: "192.168.1.1"},
		{name: "X-Real-IP takes priority", remoteAddr: "192.168.1.1:12345", xRealIP: "10.0.0.1", expected: "10.0.0.1"},
		{name: "X-Forwarded-For when no X-Real-IP", remoteAddr: "192.168.1.1:12345", xForwardedFor: "10.0.0.2", expected: "10.0.0.2"},
		{name: "X-Real-IP over X-Forwarded-For", remoteAddr: "192.168.1.1:12345", xRealIP: "10.0.0.1", xForwardedFor: "10.0.0.2", expected: "10.0.0.1"},
		{name: "first of several forwarded", remoteAddr: "192.168.1.1:12345", xForwardedFor: " 10.0.0.3, 10.0.0.4, 10.0.0.5", expected: "10.0.0.3"},
		{name: "empty forwarded entry", remoteAddr: "192.168.1.1:12345", xForwardedFor: ", 10.0.0.4", expected: "192.168.1.1"},
		{name: "IPv6 RemoteAddr", remoteAddr: "[2001:db8::1]:8080", expected: "2001:db8::1"},
		{name: "RemoteAddr without port", remoteAddr: "192.168.1.9", expected: "192.168.1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}

			if got := ClientIP(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestRateLimitMiddleware_Allowed tests request allowed
func TestRateLimitMiddleware_Allowed(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true)
	handler := RateLimitMiddleware(mockLimiter, logger.Nop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/dogs", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Errorf("expected pass-through, got %d %q", rec.Code, rec.Body.String())
	}
	if calls := mockLimiter.Calls(); len(calls) != 1 || calls[0] != "192.168.1.1" {
		t.Errorf("expected limiter keyed by client IP, got %v", calls)
	}
}

// TestRateLimitMiddleware_RateLimited tests request blocked
func TestRateLimitMiddleware_RateLimited(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(false)

	nextCalled := false
	handler := RateLimitMiddleware(mockLimiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/dogs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if nextCalled {
		t.Error("expected next handler NOT to be called")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var errResp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Error != RateLimitMessage {
		t.Errorf("unexpected error message: %s", errResp.Error)
	}
}

// TestRateLimitMiddleware_MixedAllowDeny tests a limiter that changes its mind
func TestRateLimitMiddleware_MixedAllowDeny(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true)
	handler := RateLimitMiddleware(mockLimiter, logger.Nop())(okHandler)

	codes := []int{}
	for _, allow := range []bool{true, false, true} {
		mockLimiter.SetAllow(allow)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}

	expected := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range expected {
		if codes[i] != expected[i] {
			t.Errorf("request %d: expected %d, got %d", i+1, expected[i], codes[i])
		}
	}
}

// TestLoggingMiddleware tests the completion line
func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "info", Output: &buf})

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(LoggingMiddleware(log))
			r.Get("/v1/dogs", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/dogs", nil)
			req.Header.Set("X-Request-Id", "req-123")
			r.ServeHTTP(httptest.NewRecorder(), req)

			var line map[string]any
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
				t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
			}
			if line["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, line["level"])
			}
			if line["request_id"] != "req-123" {
				t.Errorf("expected request id, got %v", line["request_id"])
			}
			if line["status"] != float64(tt.status) {
				t.Errorf("expected status %d, got %v", tt.status, line["status"])
			}
			if line["message"] != "Request completed" {
				t.Errorf("unexpected message %v", line["message"])
			}
		})
	}
}

// TestMetricsMiddleware tests that series are labelled by route pattern
func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/dogs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/dogs", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/dogs", "200")); got != 2 {
		t.Errorf("expected 2 requests for /v1/dogs, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched 404, got %v", got)
	}
}
