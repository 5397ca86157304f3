// Package main provides the entry point for the media resolver service.
//
// The media resolver turns opaque asset references (file paths, file://
// URLs, photo library URLs and picker result records) into bytes plus a
// metadata record: media type, MIME type, byte size, logical dimensions and
// EXIF orientation. Images can be resized to fit a bounding box and rotated
// upright on the way out; videos are measured with ffprobe.
//
// # Application Lifecycle
//
// The service follows a structured initialization sequence:
//
//  1. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT and derives the decode pixel budget
//  2. Configuration Loading: reads environment variables and validates directories
//  3. Database Initialization: opens the SQLite asset catalog in WAL mode
//  4. Component Initialization:
//     - Cloud backend: S3, HTTP or a mounted directory for assets not on disk
//     - Decoder: libvips when enabled and available, the Go decoders otherwise
//     - Video prober: ffprobe, when present in PATH
//     - Memory monitor: pauses batch work while the heap is critical
//     - Indexer: walks LIBRARY_DIR and keeps the catalog current
//     - Metrics collector: refreshes catalog gauges every minute
//  5. HTTP Server Setup: registers routes and middleware, then serves
//  6. Graceful Shutdown: handles SIGINT/SIGTERM and stops every component
//
// # HTTP Servers
//
// Two servers run side by side:
//
//  1. Main server (default port 8080):
//     - POST/GET /api/assets/metadata: resolve a reference to its metadata
//     - POST/GET /api/assets/blob: resolve a reference to its output bytes
//     - POST /api/assets/batch: resolve up to 100 references concurrently
//     - GET /api/assets, /api/assets/{id}, /api/stats: browse the catalog
//     - POST /api/reindex: re-index the library now
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Liveness endpoint (/health)
//
// # Graceful Shutdown
//
//  1. Stop accepting HTTP requests and drain in-flight ones (30s timeout)
//  2. Stop the indexer (the current batch commits)
//  3. Stop the metrics collector and memory monitor
//  4. Shut down the metrics server
//  5. Shut down libvips and close the database
//
// # Build Requirements
//
// CGO is required for SQLite and libvips:
//
//	go build -o media-resolver ./cmd/media-resolver
//
// See [media-resolver/internal/startup] for the environment variables.
package main
