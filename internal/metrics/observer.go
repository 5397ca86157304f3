package metrics

import (
	"time"

	"media-resolver/internal/filesystem"
)

type filesystemObserver struct{}

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// Filesystem* series.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveOperation(volume, operation string, elapsed time.Duration, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(elapsed.Seconds())
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (filesystemObserver) ObserveRetry(volume, operation string, staleErrors int, outcome string, elapsed time.Duration) {
	FilesystemStaleErrors.WithLabelValues(operation, volume).Add(float64(staleErrors))
	FilesystemRetries.WithLabelValues(operation, volume, outcome).Inc()
	FilesystemRetryDuration.WithLabelValues(operation, volume).Observe(elapsed.Seconds())
}
