package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Scan metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_scans_total",
			Help: "Total number of folder scans",
		},
		[]string{"kind", "status"}, // kind: "select", "rescan"
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_scan_duration_seconds",
			Help:    "Folder scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	ScanChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_scan_changes_total",
			Help: "Assets classified by scans",
		},
		[]string{"change"}, // "added", "modified", "removed"
	)

	ScanFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scan_failures_total",
			Help: "Per-file failures collected during scans",
		},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_scan_workers",
			Help: "Concurrency limit of the scan I/O pool",
		},
	)
)

// Scheduler metrics
var (
	SchedulerSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_scheduler_submitted_total",
			Help: "Requests submitted to the scheduler",
		},
		[]string{"variant", "outcome"}, // outcome: "queued", "coalesced"
	)

	SchedulerCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_scheduler_completed_total",
			Help: "Requests finished by the scheduler",
		},
		[]string{"variant", "status"}, // "success", "failure", "stale", "timeout", "canceled"
	)

	SchedulerPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_scheduler_pending",
			Help: "Requests waiting for a worker",
		},
	)

	SchedulerInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_scheduler_in_flight",
			Help: "Requests currently being processed by workers",
		},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_scheduler_job_duration_seconds",
			Help:    "Decode/encode job duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"variant"},
	)

	CatalogGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_generation",
			Help: "Current folder-session generation",
		},
	)
)

// Preview cache metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_cache_hits_total",
			Help: "Preview cache hits",
		},
		[]string{"variant"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_cache_misses_total",
			Help: "Preview cache misses",
		},
		[]string{"variant"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_cache_evictions_total",
			Help: "Entries evicted for capacity",
		},
		[]string{"variant"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_catalog_cache_entries",
			Help: "Entries held per variant",
		},
		[]string{"variant"},
	)
)

// Codec metrics
var (
	CodecOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_codec_operations_total",
			Help: "Decode and encode operations",
		},
		[]string{"codec", "operation", "status"},
	)

	CodecOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_codec_operation_duration_seconds",
			Help:    "Decode and encode duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"codec", "operation"},
	)
)

// Catalog contents
var (
	AssetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_assets_total",
			Help: "Assets in the catalog",
		},
	)

	AssetsFlagged = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_catalog_assets_flagged",
			Help: "Assets by culling flag",
		},
		[]string{"flag"}, // "pick", "reject"
	)

	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_event_subscribers",
			Help: "Connected websocket event subscribers",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale handle errors",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes (0 if unset)",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_go_mem_alloc_bytes",
			Help: "Current heap allocation in bytes",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_catalog_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
