/*
Package filesystem provides filesystem operations that survive NFS stale file
handle errors, for libraries and caches mounted over the network.

StatWithRetry, OpenWithRetry and ReadFileWithRetry retry ESTALE failures with
exponential backoff (defaults: 3 retries, 50ms initial, 500ms cap). Any other
error fails immediately. WriteFileAtomic stages writes in a temporary file
and renames it into place, so the cache never exposes partial downloads.

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Metrics are reported through an Observer installed with SetObserver; the
metrics package provides the Prometheus implementation. Paths are labeled by
volume ("library", "cache", "database") using a VolumeResolver.
*/
package filesystem
