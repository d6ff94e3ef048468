package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
// Values come from the environment, with a .env file for local development
type Config struct {
	// Server configuration
	Port               string
	CORSAllowedOrigins []string // browser origins allowed to call the API with cookies
	TrustProxyHeaders  bool     // honour X-Forwarded-Proto; only behind a proxy that sets it

	// Logging
	LogLevel  string // debug, info, warn, error
	LogPretty bool   // human-readable console output
	LogFile   string // optional file that also receives logs

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed
	RateLimitWindow int    // time window in seconds

	// Listing datastore (dogs and rescues)
	DatastoreType string // "csv", "mysql" or "postgres"
	DatastorePath string // directory holding dogs.csv and rescues.csv
	MySQLDSN      string
	PostgresDSN   string

	// IP location store backing the server-side geolocation capability
	LocationStoreType string // "csv", "redis" or "none"
	LocationDataPath  string // CSV file with ip,city,country,latitude,longitude

	// Redis configuration (location store and rate limiter)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// QueryStaleTime is how long a fetched listing stays fresh in the query cache
	QueryStaleTime time.Duration

	// SessionIdleTimeout evicts location sessions nobody touched for this long
	SessionIdleTimeout time.Duration
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		LogFile:   getEnv("LOG_FILE", ""),

		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 20),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		DatastoreType: strings.ToLower(getEnv("DATASTORE_TYPE", "csv")),
		DatastorePath: getEnv("DATASTORE_PATH", "./data"),
		MySQLDSN:      getEnv("MYSQL_DSN", ""),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),

		LocationStoreType: strings.ToLower(getEnv("LOCATION_STORE_TYPE", "csv")),
		LocationDataPath:  getEnv("LOCATION_DATA_PATH", "./data/ip_locations.csv"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		QueryStaleTime:     getEnvAsDuration("QUERY_STALE_TIME", 30*time.Second),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping blank entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool accepts anything strconv.ParseBool does ("1", "true", "FALSE", ...)
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration accepts Go durations ("45s", "2m") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(valueStr); err == nil {
		if seconds < 0 {
			return defaultValue
		}
		return time.Duration(seconds) * time.Second
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}

	return value
}
