// Package metrics provides Prometheus instrumentation for media-resolver.
//
// All metrics are prefixed with "media_resolver_" and registered through
// promauto at package init. InitializeMetrics pre-populates label
// combinations so dashboards see zero-valued series from the first scrape.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path, and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: currently processing requests
//
// ## Catalog Metrics
//
//   - DBQueryTotal / DBQueryDuration: SQLite catalog queries by operation
//   - DBConnectionsOpen: open catalog connections
//
// ## Pipeline Metrics
//
//   - ResolveTotal: reference resolutions by identifier source and result
//   - FetchTotal / FetchDuration / FetchInFlight: local reads and cloud downloads
//   - CloudDownloadBytes: bytes pulled from each cloud backend
//   - SniffTotal: detected media types
//   - ProbeTotal / ProbeDuration: dimension probes by kind and result
//   - ResizeTotal / ResizeDuration: decode, resize, normalize and encode phases
//   - PipelineTotal / PipelineDuration: end-to-end processing
//
// ## Library, Memory and Filesystem Metrics
//
// The Collector refreshes LibraryAssetsTotal from a StatsProvider (the
// catalog). The memory monitor updates the Memory* gauges, and the
// filesystem observer returned by NewFilesystemObserver records retry
// behaviour for stale file handles.
//
// # Usage
//
//	metrics.InitializeMetrics()
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	collector := metrics.NewCollector(store, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
