package router

import (
	"net/http"

	_ "github.com/dogadopt/dogadopt/docs" // Swagger docs
	"github.com/dogadopt/dogadopt/internal/handler"
	"github.com/dogadopt/dogadopt/internal/limiter"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	custommiddleware "github.com/dogadopt/dogadopt/internal/middleware"
	v1 "github.com/dogadopt/dogadopt/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SetupRouter builds the chi router with middleware and all routes
//
// Middleware order: request id, logging, panic recovery, CORS, metrics, rate limiting.
// Only /v1 is rate limited; health, metrics and docs are not. CORS preflights
// are answered before they reach the limiter.
func SetupRouter(
	listingHandler *handler.ListingHandler,
	locationHandler *handler.LocationHandler,
	rateLimiter limiter.Limiter,
	allowedOrigins []string,
	m *metrics.Metrics,
	log *logger.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true, // session cookie
		MaxAge:           300,
	}))
	r.Use(custommiddleware.MetricsMiddleware(m))

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(rateLimiter, log))
		r.Mount("/v1", v1.SetupRoutes(listingHandler, locationHandler))
	})

	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	// http://localhost:3000/swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
