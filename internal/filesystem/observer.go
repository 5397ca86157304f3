package filesystem

import (
	"sync/atomic"
	"time"
)

// Outcomes reported to Observer.ObserveRetry.
const (
	RetryRecovered = "recovered"
	RetryExhausted = "exhausted"
)

// Observer receives filesystem timings. metrics.NewFilesystemObserver is the
// Prometheus implementation; it lives there so this package stays a leaf.
type Observer interface {
	// ObserveOperation records one read or write against a volume.
	ObserveOperation(volume, operation string, elapsed time.Duration, err error)

	// ObserveRetry is called once per operation that hit at least one stale
	// file handle. staleErrors counts the ESTALE failures seen.
	ObserveRetry(volume, operation string, staleErrors int, outcome string, elapsed time.Duration)
}

var observer atomic.Pointer[Observer]

// SetObserver installs o for every later filesystem call. nil disables
// reporting.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&o)
}

func currentObserver() Observer {
	if p := observer.Load(); p != nil {
		return *p
	}
	return nil
}
