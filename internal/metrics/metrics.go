package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog (SQLite) metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_db_queries_total",
			Help: "Total number of catalog database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_db_query_duration_seconds",
			Help:    "Catalog database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_db_connections_open",
			Help: "Number of open catalog database connections",
		},
	)
)

// Resolution metrics
var (
	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_resolve_total",
			Help: "Total number of reference resolutions by identifier source and result",
		},
		[]string{"source", "result"}, // source: picker, url, lookup; result: found, not_found, error
	)
)

// Fetch metrics
var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_fetch_total",
			Help: "Total number of asset byte fetches",
		},
		[]string{"source", "result"}, // source: local, cloud; result: success or a fetch failure reason
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_fetch_duration_seconds",
			Help:    "Asset byte fetch duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	FetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_fetch_in_flight",
			Help: "Number of asset fetches currently in progress",
		},
	)

	CloudDownloadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_cloud_download_bytes_total",
			Help: "Total bytes downloaded from cloud storage",
		},
		[]string{"backend"},
	)
)

// Media processing metrics
var (
	SniffTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_sniff_total",
			Help: "Total number of byte sniffs by detected media type",
		},
		[]string{"type"},
	)

	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_probe_total",
			Help: "Total number of dimension probes",
		},
		[]string{"kind", "result"}, // result: success, corrupt, unsupportedFormat
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_probe_duration_seconds",
			Help:    "Dimension probe duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	ResizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_resize_total",
			Help: "Total number of image resize attempts",
		},
		[]string{"decoder", "result"}, // result: resized, unchanged, decode_error, encode_error
	)

	ResizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_resize_duration_seconds",
			Help:    "Image decode, resize and encode phase durations in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"}, // decode, resize, normalize, encode
	)

	PipelineTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_pipeline_total",
			Help: "Total number of assets processed by the pipeline",
		},
		[]string{"kind", "result"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_resolver_pipeline_duration_seconds",
			Help:    "End-to-end asset processing duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	VipsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_vips_available",
			Help: "Whether libvips is initialized and used for decoding (1 = yes)",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_resolver_indexer_runs_total",
			Help: "Total number of library indexer runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_resolver_indexer_files_processed_total",
			Help: "Total number of files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_resolver_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)
)

// Library metrics, updated by the Collector
var (
	LibraryAssetsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_resolver_library_assets",
			Help: "Number of cataloged assets by kind and availability",
		},
		[]string{"kind", "availability"}, // availability: local, cloud
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_memory_usage_ratio",
			Help: "Go heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_memory_paused",
			Help: "Whether batch processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_resolver_memory_gc_pauses_total",
			Help: "Total number of times processing paused for memory pressure",
		},
	)

	GoMemLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_resolver_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes (0 if unset)",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_filesystem_retries_total",
			Help: "Filesystem operations that hit stale file handles, by final outcome",
		},
		[]string{"operation", "volume", "outcome"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_resolver_filesystem_retry_duration_seconds",
			Help:    "Time spent in operations that needed stale handle retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_resolver_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_resolver_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
