// Package indexer keeps the asset catalog in step with the library
// directory.
//
// Each run walks LIBRARY_DIR in parallel, upserts every image and video it
// finds under a stable identifier derived from the file's URL, then removes
// library rows that were not seen. Assets that carry a cloud key survive
// because their bytes live elsewhere.
//
// Runs happen once at startup, on a fixed interval and on demand. Only one
// run is active at a time; overlapping requests are dropped. Hidden files
// and directories are skipped.
package indexer
