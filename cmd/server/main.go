package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dogadopt/dogadopt/internal/config"
	"github.com/dogadopt/dogadopt/internal/geolocation"
	"github.com/dogadopt/dogadopt/internal/handler"
	"github.com/dogadopt/dogadopt/internal/limiter"
	"github.com/dogadopt/dogadopt/internal/locator"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/query"
	"github.com/dogadopt/dogadopt/internal/router"
	"github.com/dogadopt/dogadopt/internal/service"
	"github.com/dogadopt/dogadopt/internal/store"
)

// @title           DogAdopt API
// @version         1.0
// @description     Adoptable dog and rescue listings, and visitor geolocation for nearby results

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /
func main() {
	appConfig := config.Load()

	appLogger := setupLogger(appConfig)
	metricsCollector := setupMetrics(appLogger)

	listingStore := setupListingStore(appConfig, metricsCollector, appLogger)
	listingService := service.NewListingService(listingStore, metricsCollector, appLogger)
	defer listingService.Close()

	ipLocator := setupLocator(appConfig, metricsCollector, appLogger)
	if ipLocator != nil {
		defer ipLocator.Close()
	}

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	queries := query.NewClient(appConfig.QueryStaleTime, metricsCollector, appLogger)
	registry := geolocation.NewRegistry(
		appConfig.SessionIdleTimeout,
		metricsCollector,
		appLogger,
		geolocation.WithLogger(appLogger),
		geolocation.WithMetrics(metricsCollector),
	)

	listingHandler := handler.NewListingHandler(listingService, queries, appLogger)
	locationHandler := handler.NewLocationHandler(registry, ipLocator, appConfig.TrustProxyHeaders, appLogger)
	appRouter := router.SetupRouter(listingHandler, locationHandler, rateLimiter, appConfig.CORSAllowedOrigins, metricsCollector, appLogger)

	startServer(appConfig, appRouter, appLogger)
}

func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:      appConfig.LogLevel,
		Pretty:     appConfig.LogPretty,
		OutputFile: appConfig.LogFile,
	})

	appLogger.Info().Msg("Starting DogAdopt server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Strs("cors_allowed_origins", appConfig.CORSAllowedOrigins).
		Bool("trust_proxy_headers", appConfig.TrustProxyHeaders).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Str("location_store_type", appConfig.LocationStoreType).
		Dur("query_stale_time", appConfig.QueryStaleTime).
		Dur("session_idle_timeout", appConfig.SessionIdleTimeout).
		Msg("Configuration loaded")

	return appLogger
}

func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// setupListingStore opens the dogs and rescues datastore: CSV, MySQL or Postgres
func setupListingStore(appConfig *config.Config, m *metrics.Metrics, log *logger.Logger) store.ListingStore {
	switch appConfig.DatastoreType {
	case "csv":
		csvStore, err := store.NewCSVStore(appConfig.DatastorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", appConfig.DatastorePath).Msg("Failed to initialize CSV store")
		}
		log.Info().Str("path", appConfig.DatastorePath).Msg("CSV listing store initialized")
		return csvStore

	case "mysql", "postgres":
		dsn := appConfig.MySQLDSN
		if appConfig.DatastoreType == "postgres" {
			dsn = appConfig.PostgresDSN
		}
		sqlStore, err := store.NewSQLStore(appConfig.DatastoreType, dsn, m)
		if err != nil {
			log.Fatal().Err(err).Str("dialect", appConfig.DatastoreType).Msg("Failed to initialize SQL store")
		}
		log.Info().Str("dialect", appConfig.DatastoreType).Msg("SQL listing store initialized")
		return sqlStore

	default:
		log.Fatal().Str("type", appConfig.DatastoreType).Msg("Unknown datastore type")
		return nil
	}
}

// setupLocator opens the IP location store; nil means geolocation is unsupported
func setupLocator(appConfig *config.Config, m *metrics.Metrics, log *logger.Logger) *locator.Locator {
	var locationStore store.LocationStore

	switch appConfig.LocationStoreType {
	case "none":
		log.Warn().Msg("No location store configured, geolocation will report unsupported")
		return nil

	case "csv":
		csvStore, err := store.NewLocationCSVStore(appConfig.LocationDataPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", appConfig.LocationDataPath).Msg("Failed to initialize location CSV store")
		}
		locationStore = csvStore

	case "redis":
		redisStore, err := store.NewRedisLocationStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, m)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis location store")
		}
		loadRedisDataIfEmpty(redisStore, appConfig.LocationDataPath, log)
		locationStore = redisStore

	default:
		log.Fatal().Str("type", appConfig.LocationStoreType).Msg("Unknown location store type")
	}

	log.Info().Str("type", appConfig.LocationStoreType).Msg("Location store initialized")
	return locator.New(locationStore, m, log)
}

// loadRedisDataIfEmpty seeds an empty Redis from the location CSV
func loadRedisDataIfEmpty(redisStore *store.RedisLocationStore, csvPath string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	isEmpty, err := redisStore.IsEmpty(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check if Redis is empty")
		return
	}
	if !isEmpty {
		return
	}

	log.Info().Str("path", csvPath).Msg("Redis is empty, loading IP locations from CSV")
	count, err := redisStore.LoadFromCSV(ctx, csvPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load IP locations")
		return
	}
	log.Info().Int("count", count).Msg("IP locations loaded")
}

func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	rateLimiter, err := limiter.New(limiter.Config{
		Type:          appConfig.RateLimitType,
		Requests:      appConfig.RateLimit,
		Window:        time.Duration(appConfig.RateLimitWindow) * time.Second,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Int("window_seconds", appConfig.RateLimitWindow).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// startServer serves until SIGINT/SIGTERM, then drains in-flight requests
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("port", appConfig.Port).
			Str("dogs", "http://localhost:"+appConfig.Port+"/v1/dogs").
			Str("rescues", "http://localhost:"+appConfig.Port+"/v1/rescues").
			Str("location", "http://localhost:"+appConfig.Port+"/v1/location").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Str("swagger", "http://localhost:"+appConfig.Port+"/swagger/index.html").
			Msg("Server is running")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
