package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dogadopt/dogadopt/internal/limiter"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/models"
)

// RateLimitMessage is the body error for a rejected request
const RateLimitMessage = "Rate limit exceeded. Please try again later."

// RateLimitMiddleware rejects clients over budget with 429, keyed by ClientIP
func RateLimitMiddleware(lim limiter.Limiter, log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("RateLimit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if !lim.Allow(r.Context(), ip) {
				log.Warn().Str("client_ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: RateLimitMessage})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
