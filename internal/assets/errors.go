package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotFound is returned when a reference or identifier has no catalog entry.
// It is not fatal: a reference without a catalog entry may still carry bytes.
var ErrNotFound = errors.New("asset not found in library")

// ErrPermission is returned by stores and cloud backends when access is denied.
var ErrPermission = errors.New("permission denied")

// FetchReason classifies a failed fetch.
type FetchReason string

const (
	FetchNetwork    FetchReason = "network"
	FetchPermission FetchReason = "permission"
	FetchCancelled  FetchReason = "cancelled"
	FetchNotFound   FetchReason = "notFound"
)

// FetchError reports a failed or aborted byte fetch for one asset.
type FetchError struct {
	Reason     FetchReason
	Identifier Identifier
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Identifier, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Identifier, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError classifies err and wraps it. A nil err yields nil.
func NewFetchError(id Identifier, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Reason: ClassifyFetchError(err), Identifier: id, Err: err}
}

// ClassifyFetchError maps an error from a store or cloud backend to a reason.
// Anything unrecognized is treated as a network failure.
func ClassifyFetchError(err error) FetchReason {
	var fe *FetchError
	switch {
	case errors.As(err, &fe):
		return fe.Reason
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FetchCancelled
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return FetchNotFound
	case errors.Is(err, ErrPermission), errors.Is(err, fs.ErrPermission):
		return FetchPermission
	default:
		return FetchNetwork
	}
}

// IsFetchReason reports whether err is a FetchError with the given reason.
func IsFetchReason(err error, reason FetchReason) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Reason == reason
}

// ProbeReason classifies a failed metadata probe.
type ProbeReason string

const (
	ProbeCorrupt           ProbeReason = "corrupt"
	ProbeUnsupportedFormat ProbeReason = "unsupportedFormat"
)

// ProbeError reports that dimensions could not be extracted. Callers should
// report dimensions as unknown rather than abort.
type ProbeError struct {
	Reason ProbeReason
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe: %s: %v", e.Reason, e.Err)
	}
	return "probe: " + string(e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// DecodeError reports a failure of the delegated decoder. Resizing is skipped
// and the original bytes are returned.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
