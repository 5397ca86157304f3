package metrics

// Label values shared by InitializeMetrics and the packages recording them.
var (
	Volumes         = []string{"library", "cache", "database", "unknown"}
	FetchSources    = []string{"local", "cloud"}
	FetchResults    = []string{"success", "network", "permission", "cancelled", "notFound"}
	ProbeResults    = []string{"success", "corrupt", "unsupportedFormat"}
	ResolveSources  = []string{"picker", "url", "lookup"}
	ResolveResults  = []string{"found", "not_found", "error"}
	ResizeResults   = []string{"resized", "unchanged", "decode_error", "encode_error"}
	PipelineResults = []string{"success", "not_found", "fetch_error", "error"}
	MediaTypes      = []string{"jpeg", "png", "gif", "webp", "heic", "unknown"}
	Kinds           = []string{"image", "video", "other"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, vol := range Volumes {
		for _, op := range []string{"read", "write"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open"} {
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
			for _, outcome := range []string{"recovered", "exhausted"} {
				FilesystemRetries.WithLabelValues(op, vol, outcome)
			}
		}
	}

	// --- Resolution ---
	for _, src := range ResolveSources {
		for _, res := range ResolveResults {
			ResolveTotal.WithLabelValues(src, res)
		}
	}

	// --- Fetch ---
	for _, src := range FetchSources {
		FetchDuration.WithLabelValues(src)
		for _, res := range FetchResults {
			FetchTotal.WithLabelValues(src, res)
		}
	}
	for _, backend := range []string{"s3", "http", "directory"} {
		CloudDownloadBytes.WithLabelValues(backend)
	}

	// --- Sniff / probe / resize ---
	for _, t := range MediaTypes {
		SniffTotal.WithLabelValues(t)
	}
	for _, kind := range Kinds {
		ProbeDuration.WithLabelValues(kind)
		for _, res := range ProbeResults {
			ProbeTotal.WithLabelValues(kind, res)
		}
		for _, res := range PipelineResults {
			PipelineTotal.WithLabelValues(kind, res)
		}
		for _, avail := range []string{"local", "cloud"} {
			LibraryAssetsTotal.WithLabelValues(kind, avail)
		}
	}
	for _, dec := range []string{"std", "vips"} {
		for _, res := range ResizeResults {
			ResizeTotal.WithLabelValues(dec, res)
		}
	}
	for _, phase := range []string{"decode", "resize", "normalize", "encode"} {
		ResizeDuration.WithLabelValues(phase)
	}

	// --- Catalog query operations ---
	for _, op := range []string{"initialize_schema", "upsert_asset", "lookup_by_reference",
		"fetch_by_identifier", "mark_local", "delete_missing", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
