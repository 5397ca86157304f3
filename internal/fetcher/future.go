package fetcher

import (
	"context"
	"sync"

	"media-resolver/internal/assets"
)

// Future is the pending result of one fetch. It settles exactly once; later
// attempts to settle it are ignored.
type Future struct {
	id   assets.Identifier
	done chan struct{}
	once sync.Once
	blob *assets.Blob
	err  error
}

func newFuture(id assets.Identifier) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// settle records the outcome and reports whether this call was the one that
// settled the future.
func (f *Future) settle(blob *assets.Blob, err error) bool {
	settled := false
	f.once.Do(func() {
		f.blob = blob
		if err != nil {
			f.err = assets.NewFetchError(f.id, err)
		}
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled outcome. It returns (nil, nil) before Done is
// closed.
func (f *Future) Result() (*assets.Blob, error) {
	select {
	case <-f.done:
		return f.blob, f.err
	default:
		return nil, nil
	}
}

// Wait blocks until the future settles or ctx is done. Giving up on ctx does
// not settle the future.
func (f *Future) Wait(ctx context.Context) (*assets.Blob, error) {
	select {
	case <-f.done:
		return f.blob, f.err
	case <-ctx.Done():
		return nil, &assets.FetchError{Reason: assets.FetchCancelled, Identifier: f.id, Err: ctx.Err()}
	}
}
