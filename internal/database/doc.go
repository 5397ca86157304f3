// Package database is the SQLite catalog of the media library and the
// assets.MediaStore built on it.
//
// Each row maps a stable identifier to the asset's library path, the URI
// the host knows it by, an optional cloud key, and the local path of its
// readable bytes. The indexer fills the catalog; MediaStore answers the
// resolver's reverse lookups, reads local bytes, and downloads cloud-only
// assets into the cache directory, marking them local afterwards.
//
// The database runs in WAL mode with a busy timeout so the indexer and
// request handlers can use it concurrently.
package database
