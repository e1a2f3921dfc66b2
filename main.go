package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"media-gallery/internal/api"
	"media-gallery/internal/captioner"
	"media-gallery/internal/config"
	"media-gallery/internal/database"
	"media-gallery/internal/history"
	"media-gallery/internal/kvstore"
	"media-gallery/internal/logging"
	"media-gallery/internal/memory"
	"media-gallery/internal/queue"
	"media-gallery/internal/syncer"
	"media-gallery/internal/transformcache"
	"media-gallery/internal/videoopt"
	"media-gallery/internal/watcher"
	"media-gallery/internal/workers"
)

func main() {
	startTime := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	memory.ConfigureFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		logging.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	logging.Info("Database ready in %v", time.Since(dbStart).Round(time.Millisecond))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Error("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
		os.Exit(1)
	}
	defer rdb.Close()
	store := kvstore.NewRedisStore(rdb)
	registry := kvstore.NewFailureRegistry(store, 0)

	cache, err := transformcache.New(cfg.CacheCapacity)
	if err != nil {
		logging.Error("Failed to create transform cache: %v", err)
		os.Exit(1)
	}

	sync := syncer.New(db, cfg.MediaDir)
	tracker := history.New(db, store, cfg.CacheNamespace)

	// Initial rebuild off the startup path; the watcher keeps the index
	// current afterwards.
	go func() {
		count, err := sync.Rebuild(ctx)
		if err != nil {
			logging.Error("Initial index rebuild failed: %v", err)
			return
		}
		logging.Info("Indexed %d items", count)
	}()

	// Refresh connection-pool gauges periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				db.UpdateDBMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()

	w, err := watcher.New(cfg.MediaDir, sync, cfg.WatchDebounce)
	if err != nil {
		logging.Error("Failed to create filesystem watcher: %v", err)
		os.Exit(1)
	}
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			logging.Error("Filesystem watcher stopped: %v", err)
		}
	}()

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = workers.ForIO(16)
	}
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	srv := queue.NewServer(redisOpt, concurrency,
		captioner.New(cfg.MediaDir, cache),
		videoopt.New(cfg.MediaDir, registry),
		store,
	)
	if err := srv.Start(); err != nil {
		logging.Error("Failed to start job workers: %v", err)
		os.Exit(1)
	}

	client := queue.NewClient(redisOpt)
	defer client.Close()

	handlers := api.New(db, tracker, client, store)
	apiSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logging.Info("API listening on :%s", cfg.Port)
		if err := apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("API server error: %v", err)
		}
	}()

	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		logging.Info("Metrics listening on :%s", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	logging.Info("Startup complete in %v (concurrency %d)", time.Since(startTime).Round(time.Millisecond), concurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logging.Info("Received %v, shutting down", sig)

	cancel()
	srv.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("API server shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Metrics server shutdown: %v", err)
	}
	logging.Info("Shutdown complete")
}
