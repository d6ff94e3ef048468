package config

import (
	"testing"
	"time"
)

// TestLoad_Defaults tests defaults when nothing is set
func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATASTORE_TYPE", "LOCATION_STORE_TYPE", "QUERY_STALE_TIME", "LOG_PRETTY", "RATE_LIMIT",
		"TRUST_PROXY_HEADERS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.DatastoreType != "csv" {
		t.Errorf("expected datastore csv, got %s", cfg.DatastoreType)
	}
	if cfg.LocationStoreType != "csv" {
		t.Errorf("expected location store csv, got %s", cfg.LocationStoreType)
	}
	if cfg.QueryStaleTime != 30*time.Second {
		t.Errorf("expected 30s stale time, got %v", cfg.QueryStaleTime)
	}
	if !cfg.LogPretty {
		t.Error("expected pretty logging by default")
	}
	if cfg.TrustProxyHeaders {
		t.Error("expected proxy headers to be untrusted by default")
	}
	if cfg.RateLimit != 20 {
		t.Errorf("expected rate limit 20, got %d", cfg.RateLimit)
	}
}

// TestLoad_Overrides tests environment overrides
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATASTORE_TYPE", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/dogadopt")
	t.Setenv("LOCATION_STORE_TYPE", "redis")
	t.Setenv("QUERY_STALE_TIME", "2m")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DatastoreType != "postgres" {
		t.Errorf("expected datastore type to be lower-cased, got %s", cfg.DatastoreType)
	}
	if cfg.PostgresDSN != "postgres://localhost/dogadopt" {
		t.Errorf("unexpected postgres dsn: %s", cfg.PostgresDSN)
	}
	if cfg.LocationStoreType != "redis" {
		t.Errorf("expected location store redis, got %s", cfg.LocationStoreType)
	}
	if cfg.QueryStaleTime != 2*time.Minute {
		t.Errorf("expected 2m stale time, got %v", cfg.QueryStaleTime)
	}
	if cfg.SessionIdleTimeout != 90*time.Second {
		t.Errorf("expected 90s idle timeout, got %v", cfg.SessionIdleTimeout)
	}
	if cfg.LogPretty {
		t.Error("expected pretty logging disabled")
	}
	if !cfg.TrustProxyHeaders {
		t.Error("expected proxy headers to be trusted")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.RedisDB)
	}
}

// TestGetEnvHelpers_InvalidValues tests fallbacks for unparsable values
func TestGetEnvHelpers_InvalidValues(t *testing.T) {
	t.Setenv("BAD_INT", "ten")
	t.Setenv("BAD_BOOL", "maybe")
	t.Setenv("BAD_DURATION", "soon")
	t.Setenv("NEGATIVE_DURATION", "-5s")

	if got := getEnvAsInt("BAD_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
	if got := getEnvAsBool("BAD_BOOL", true); !got {
		t.Error("expected default true")
	}
	if got := getEnvAsDuration("BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("expected default 1s, got %v", got)
	}
	if got := getEnvAsDuration("NEGATIVE_DURATION", time.Second); got != time.Second {
		t.Errorf("expected default 1s for negative duration, got %v", got)
	}
}

// TestGetEnvAsList tests comma-separated parsing of origin lists
func TestGetEnvAsList(t *testing.T) {
	defaults := []string{"http://localhost:5173"}

	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"unset uses default", "", defaults},
		{"single", "https://dogadopt.example", []string{"https://dogadopt.example"}},
		{"trims and drops blanks", " https://a.example , ,https://b.example ", []string{"https://a.example", "https://b.example"}},
		{"only separators uses default", " , ", defaults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ORIGINS", tt.value)

			got := getEnvAsList("TEST_ORIGINS", defaults)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}
