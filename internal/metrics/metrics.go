package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Synchronizer metrics
var (
	SyncRebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_sync_rebuilds_total",
			Help: "Total number of full index rebuilds",
		},
	)

	SyncRebuildDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gallery_sync_last_rebuild_duration_seconds",
			Help: "Duration of the last full rebuild in seconds",
		},
	)

	SyncItemsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_sync_items_indexed_total",
			Help: "Total number of items written during rebuilds",
		},
	)

	SyncChangesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_sync_changes_applied_total",
			Help: "Total number of incremental change events applied",
		},
		[]string{"event"}, // "add", "addDir", "unlink", "unlinkDir"
	)

	SyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_sync_errors_total",
			Help: "Total number of synchronizer errors",
		},
	)
)

// Job worker metrics
var (
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gallery_jobs_processed_total",
			Help: "Total number of jobs processed per queue and outcome",
		},
		[]string{"queue", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gallery_job_duration_seconds",
			Help:    "Job processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"queue"},
	)

	CaptionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_caption_retries_total",
			Help: "Total number of caption endpoint retries",
		},
	)

	VideoPermanentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_video_permanent_failures_total",
			Help: "Total number of paths marked permanently failed",
		},
	)
)

// Cache metrics
var (
	TransformCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_transform_cache_hits_total",
			Help: "Total number of transform cache hits",
		},
	)

	TransformCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_transform_cache_misses_total",
			Help: "Total number of transform cache misses",
		},
	)

	TransformCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_transform_cache_evictions_total",
			Help: "Total number of transform cache evictions",
		},
	)

	InvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gallery_invalidations_total",
			Help: "Total number of cached response keys purged after views",
		},
	)
)
