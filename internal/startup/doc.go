// Package startup loads configuration and writes the startup and shutdown
// log.
//
// All configuration comes from environment variables via [LoadConfig]:
//
//   - LIBRARY_DIR: directory indexed into the catalog (default: /library)
//   - CACHE_DIR: downloads of cloud assets and processed output (default: /cache)
//   - DATABASE_DIR: catalog database directory, must be writable (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: enable the metrics server (default: true)
//   - INDEX_INTERVAL: full re-index interval as Go duration (default: 30m)
//   - CLOUD_BACKEND: none, s3, http or directory (default: none)
//   - CLOUD_BUCKET, CLOUD_BASE_URL, CLOUD_DIR: settings of the chosen backend
//   - FETCH_TIMEOUT: bound on each fetch as Go duration; 0 disables (default: 0)
//   - MAX_WIDTH, MAX_HEIGHT: default output bounds; 0 disables resizing
//   - JPEG_QUALITY: quality of re-encoded JPEG output (default: 90)
//   - NORMALIZE: rotate output upright (default: true)
//   - VIPS_ENABLED: decode with libvips when available (default: true)
//   - FFPROBE_PATH: ffprobe binary for video dimensions (default: ffprobe)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//
// Memory limits (MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT) are read by the
// memory package and reported with the other wired components by
// [LogComponents].
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
