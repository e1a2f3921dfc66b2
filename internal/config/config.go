package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"media-gallery/internal/logging"
)

// Config holds the runtime settings for the background-processing service.
type Config struct {
	MediaDir      string
	DatabaseDir   string
	Port          string
	MetricsPort   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Concurrency    int
	CacheCapacity  int
	CacheNamespace string
	WatchDebounce  time.Duration

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvInt("REDIS_DB", 0)
	concurrency := getEnvInt("QUEUE_CONCURRENCY", 0)
	cacheCapacity := getEnvInt("TRANSFORM_CACHE_CAPACITY", 64)
	cacheNamespace := getEnv("CACHE_NAMESPACE", "apicache")
	debounceStr := getEnv("WATCH_DEBOUNCE", "2s")

	logging.Info("  MEDIA_DIR:                 %s", mediaDir)
	logging.Info("  DATABASE_DIR:              %s", databaseDir)
	logging.Info("  PORT:                      %s", port)
	logging.Info("  METRICS_PORT:              %s", metricsPort)
	logging.Info("  REDIS_ADDR:                %s", redisAddr)
	logging.Info("  REDIS_DB:                  %d", redisDB)
	logging.Info("  QUEUE_CONCURRENCY:         %d", concurrency)
	logging.Info("  TRANSFORM_CACHE_CAPACITY:  %d", cacheCapacity)
	logging.Info("  CACHE_NAMESPACE:           %s", cacheNamespace)
	logging.Info("  WATCH_DEBOUNCE:            %s", debounceStr)
	logging.Info("  LOG_LEVEL:                 %s", logging.GetLevel())

	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		logging.Warn("  Invalid WATCH_DEBOUNCE, using default: 2s")
		debounce = 2 * time.Second
	}
	if cacheCapacity <= 0 {
		logging.Warn("  Invalid TRANSFORM_CACHE_CAPACITY, using default: 64")
		cacheCapacity = 64
	}

	if info, err := os.Stat(mediaDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("media directory %s is not accessible: %w", mediaDir, err)
	}
	if err := os.MkdirAll(databaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", databaseDir, err)
	}

	return &Config{
		MediaDir:       mediaDir,
		DatabaseDir:    databaseDir,
		Port:           port,
		MetricsPort:    metricsPort,
		RedisAddr:      redisAddr,
		RedisPassword:  redisPassword,
		RedisDB:        redisDB,
		Concurrency:    concurrency,
		CacheCapacity:  cacheCapacity,
		CacheNamespace: cacheNamespace,
		WatchDebounce:  debounce,
		DatabasePath:   databaseDir + "/index.db",
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logging.Warn("  Invalid %s value %q, using default: %d", key, value, fallback)
	}
	return fallback
}
