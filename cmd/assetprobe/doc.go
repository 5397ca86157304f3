// Command assetprobe inspects and maintains the media resolver's asset
// catalog from the command line.
//
// Usage:
//
//	assetprobe <command> [flags]
//
// Commands:
//
//	resolve   Print the catalog identifier a reference resolves to.
//	metadata  Run references through the pipeline and print the results.
//	          With -o, the output bytes are written to a directory.
//	import    Register a cloud-only asset under its cloud key.
//	index     Index a library directory once.
//	stats     Print catalog counts.
//
// Environment:
//
//	DATABASE_DIR  - Path to database directory (default: /database)
//	CACHE_DIR     - Download cache directory (default: /cache)
//	CLOUD_BACKEND, CLOUD_BUCKET, CLOUD_BASE_URL, CLOUD_DIR - cloud backend
//
// Output is JSON, indented when stdout is a terminal.
package main
