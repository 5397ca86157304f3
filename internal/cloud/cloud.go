package cloud

import (
	"context"
	"fmt"
	"io"

	"media-resolver/internal/assets"
	"media-resolver/internal/metrics"
)

// Downloader retrieves the original bytes of a cloud-only asset.
// Implementations map missing objects to assets.ErrNotFound and refused
// access to assets.ErrPermission.
type Downloader interface {
	// Download writes the object stored under key to w and returns the byte
	// count. onProgress, if non-nil, receives fractions in [0, 1].
	Download(ctx context.Context, key string, w io.Writer, onProgress assets.ProgressFunc) (int64, error)
	// Name labels the backend in logs and metrics.
	Name() string
}

// Backend names accepted by New.
const (
	BackendNone      = "none"
	BackendS3        = "s3"
	BackendHTTP      = "http"
	BackendDirectory = "directory"
)

// Config selects and configures a cloud backend.
type Config struct {
	Backend string
	// Bucket is the S3 bucket for BackendS3.
	Bucket string
	// BaseURL is the object URL prefix for BackendHTTP.
	BaseURL string
	// Dir is the mounted remote directory for BackendDirectory.
	Dir string
}

// New returns the Downloader described by cfg. BackendNone (or an empty
// backend) returns nil: every asset is expected to be local.
func New(ctx context.Context, cfg Config) (Downloader, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendS3:
		return NewS3Downloader(ctx, cfg.Bucket)
	case BackendHTTP:
		return NewHTTPDownloader(cfg.BaseURL, nil)
	case BackendDirectory:
		return NewDirDownloader(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cloud backend %q", cfg.Backend)
	}
}

// progressWriter reports progress as bytes pass through it and counts them
// towards the download metrics.
type progressWriter struct {
	w          io.Writer
	total      int64
	written    int64
	backend    string
	onProgress assets.ProgressFunc
}

func newProgressWriter(w io.Writer, total int64, backend string, onProgress assets.ProgressFunc) *progressWriter {
	return &progressWriter{w: w, total: total, backend: backend, onProgress: onProgress}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	metrics.CloudDownloadBytes.WithLabelValues(p.backend).Add(float64(n))

	if p.onProgress != nil && p.total > 0 {
		fraction := float64(p.written) / float64(p.total)
		if fraction > 1 {
			fraction = 1
		}
		p.onProgress(fraction)
	}
	return n, err
}

// copyWithProgress copies r into w, honoring ctx between chunks, and reports
// completion once done.
func copyWithProgress(ctx context.Context, w io.Writer, r io.Reader, total int64, backend string, onProgress assets.ProgressFunc) (int64, error) {
	pw := newProgressWriter(w, total, backend, onProgress)
	n, err := io.Copy(pw, contextReader{ctx: ctx, r: r})
	if err != nil {
		return n, err
	}
	if onProgress != nil {
		onProgress(1)
	}
	return n, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
