package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
	"media-resolver/internal/metrics"
)

var log = logging.For("fetcher")

// Dispatcher runs completion callbacks on an executor chosen by the caller,
// for example a UI or event loop.
type Dispatcher func(func())

// CompletionFunc receives the outcome of FetchAsync. err is *assets.FetchError.
type CompletionFunc func(blob *assets.Blob, err error)

// Fetcher obtains the bytes of an asset from local storage, downloading it
// from the cloud first when it is not on device. A Fetcher holds no
// per-request state and is safe for concurrent use. Concurrent fetches of
// the same handle are independent.
type Fetcher struct {
	store      assets.MediaStore
	dispatch   Dispatcher
	timeout    time.Duration
	onProgress func(h *assets.Handle, fraction float64)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDispatcher sets the executor for FetchAsync callbacks. By default the
// callback runs on the fetch goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(f *Fetcher) {
		f.dispatch = d
	}
}

// WithTimeout bounds every fetch. Zero (the default) leaves the caller's
// context in charge. A timed out fetch fails as cancelled.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithProgress receives cloud download progress.
func WithProgress(fn func(h *assets.Handle, fraction float64)) Option {
	return func(f *Fetcher) {
		f.onProgress = fn
	}
}

// New creates a Fetcher over store.
func New(store assets.MediaStore, opts ...Option) *Fetcher {
	f := &Fetcher{store: store}
	for _, opt := range opts {
		opt(f)
	}
	if f.dispatch == nil {
		f.dispatch = func(fn func()) { fn() }
	}
	return f
}

// Fetch starts fetching the bytes of h and returns immediately. The future
// settles with the bytes, or with a *assets.FetchError. When ctx is cancelled
// the future settles as cancelled right away; an underlying cloud transfer
// may keep running until the store notices the cancellation.
//
// One download attempt is made per call.
func (f *Fetcher) Fetch(ctx context.Context, h *assets.Handle) *Future {
	if h == nil {
		fut := newFuture("")
		fut.settle(nil, assets.ErrNotFound)
		return fut
	}

	fut := newFuture(h.Identifier)
	if err := ctx.Err(); err != nil {
		fut.settle(nil, err)
		f.record("local", fut, time.Now())
		return fut
	}

	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	var source atomic.Value
	source.Store("local")
	start := time.Now()

	// Settles as cancelled when ctx ends first.
	go func() {
		defer cancel()
		select {
		case <-ctx.Done():
			if fut.settle(nil, ctx.Err()) {
				log.Debug("Fetch of %s cancelled: %v", h.Identifier, ctx.Err())
				f.record(source.Load().(string), fut, start)
			}
		case <-fut.done:
		}
	}()

	go func() {
		metrics.FetchInFlight.Inc()
		defer metrics.FetchInFlight.Dec()

		blob, err := f.fetch(ctx, h, &source)
		if fut.settle(blob, err) {
			f.record(source.Load().(string), fut, start)
		} else if err == nil {
			log.Debug("Fetch of %s completed after cancellation; result discarded", h.Identifier)
		}
	}()

	return fut
}

// fetch runs in its own goroutine, so a panicking store is turned into an
// error here rather than taking the process down.
func (f *Fetcher) fetch(ctx context.Context, h *assets.Handle, source *atomic.Value) (blob *assets.Blob, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Store panicked while fetching %s: %v", h.Identifier, r)
			blob, err = nil, fmt.Errorf("store panicked: %v", r)
		}
	}()

	local, err := f.store.IsLocallyAvailable(ctx, h)
	if err != nil {
		return nil, err
	}

	if local {
		return f.store.ReadLocalBytes(ctx, h)
	}

	source.Store("cloud")
	log.Debug("Asset %s is cloud-only, requesting download", h.Identifier)

	var progress assets.ProgressFunc
	if f.onProgress != nil {
		progress = func(fraction float64) { f.onProgress(h, fraction) }
	}

	blob, err = f.store.RequestCloudDownload(ctx, h, progress)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, errors.New("cloud download returned no data")
	}
	return blob, nil
}

func (f *Fetcher) record(source string, fut *Future, start time.Time) {
	metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	_, err := fut.Result()
	if err == nil {
		metrics.FetchTotal.WithLabelValues(source, "success").Inc()
		return
	}

	reason := assets.ClassifyFetchError(err)
	metrics.FetchTotal.WithLabelValues(source, string(reason)).Inc()
	if reason != assets.FetchCancelled {
		log.Warn("Fetch of %s from %s failed: %v", fut.id, source, err)
	}
}

// FetchSync fetches the bytes of h and blocks until they are available or
// the fetch fails. It may block for the length of a cloud download, so it
// must not be called from an event loop or UI thread.
func (f *Fetcher) FetchSync(ctx context.Context, h *assets.Handle) (*assets.Blob, error) {
	return f.Fetch(ctx, h).Wait(ctx)
}

// FetchAsync fetches the bytes of h in the background and invokes onComplete
// exactly once with the outcome, through the configured Dispatcher. The
// callback never runs before FetchAsync has returned, even for assets that
// are already local or handles that fail immediately.
func (f *Fetcher) FetchAsync(ctx context.Context, h *assets.Handle, onComplete CompletionFunc) {
	fut := f.Fetch(ctx, h)

	returned := make(chan struct{})
	defer close(returned)

	go func() {
		<-returned
		<-fut.Done()
		blob, err := fut.Result()
		f.dispatch(func() {
			onComplete(blob, err)
		})
	}()
}
