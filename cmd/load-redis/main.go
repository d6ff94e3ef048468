package main

import (
	"context"
	"time"

	"github.com/dogadopt/dogadopt/internal/config"
	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/store"
)

// Loads IP locations from LOCATION_DATA_PATH into Redis
// Usage: go run ./cmd/load-redis
func main() {
	appConfig := config.Load()
	log := logger.New(logger.Config{Level: appConfig.LogLevel, Pretty: true}).WithComponent("load-redis")

	log.Info().Str("addr", appConfig.RedisAddr).Msg("Connecting to Redis")
	redisStore, err := store.NewRedisLocationStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info().Str("path", appConfig.LocationDataPath).Msg("Loading IP locations")
	count, err := redisStore.LoadFromCSV(ctx, appConfig.LocationDataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load CSV data")
	}

	log.Info().Int("count", count).Msg("IP locations loaded; start the server with LOCATION_STORE_TYPE=redis")
}
