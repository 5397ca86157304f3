package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/fetcher"
	"media-resolver/internal/filesystem"
	"media-resolver/internal/logging"
	"media-resolver/internal/media"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/memory"
	"media-resolver/internal/metrics"
	"media-resolver/internal/orientation"
	"media-resolver/internal/resolver"

	"github.com/gabriel-vasile/mimetype"
)

var log = logging.For("pipeline")

// VideoProber reports the natural frame size of a video and the orientation
// its container asks players to apply.
type VideoProber interface {
	ProbeVideoDimensions(ctx context.Context, h *assets.Handle) (mediatypes.Dimensions, orientation.Code, error)
}

// Options controls what Process does beyond reading metadata.
type Options struct {
	// MaxWidth and MaxHeight bound image output; either ≤ 0 disables resizing.
	MaxWidth  int
	MaxHeight int
	// Quality is the JPEG quality for re-encoded output.
	Quality int
	// Normalize rotates image output upright and reports Normal orientation.
	Normalize bool
	// OutputDir, when set, receives a copy of the output under a unique name.
	OutputDir string
}

// Result is the outcome of processing one reference.
type Result struct {
	Metadata assets.Metadata `json:"metadata"`
	// Blob holds the output bytes: the transformed image, or the original
	// bytes when nothing was transformed or decoding failed.
	Blob *assets.Blob `json:"-"`
	// Transformed reports whether Blob differs from the original bytes.
	Transformed bool `json:"transformed"`
	// OutputPath is where the output was written when Options.OutputDir is set.
	OutputPath string `json:"outputPath,omitempty"`
	// Warnings lists non-fatal problems, such as unknown dimensions.
	Warnings []string `json:"warnings,omitempty"`
}

// Pipeline turns asset references into bytes plus metadata.
type Pipeline struct {
	resolver *resolver.Resolver
	fetcher  *fetcher.Fetcher
	decoder  media.Decoder
	videos   VideoProber
	monitor  *memory.Monitor
	retry    filesystem.RetryConfig
	workers  int
	roots    []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithVideoProber enables video dimension probing.
func WithVideoProber(v VideoProber) Option {
	return func(p *Pipeline) {
		p.videos = v
	}
}

// WithMonitor makes batches wait while memory usage is critical.
func WithMonitor(m *memory.Monitor) Option {
	return func(p *Pipeline) {
		p.monitor = m
	}
}

// WithAllowedRoots lets references without a catalog entry be read directly
// when they name a file under one of roots. Without it such references
// report assets.ErrNotFound.
func WithAllowedRoots(roots ...string) Option {
	return func(p *Pipeline) {
		for _, root := range roots {
			if root == "" {
				continue
			}
			p.roots = append(p.roots, canonicalPath(root))
		}
	}
}

// WithWorkers caps batch concurrency.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// New creates a pipeline. decoder may be nil, in which case images are never
// transformed.
func New(r *resolver.Resolver, f *fetcher.Fetcher, decoder media.Decoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: r,
		fetcher:  f,
		decoder:  decoder,
		retry:    filesystem.DefaultRetryConfig(),
		workers:  8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process resolves ref, fetches its bytes and derives metadata, resizing and
// normalizing images as opts request.
//
// A reference without a catalog entry is read directly from the path it
// names when that path is under an allowed root (see WithAllowedRoots); a
// path outside every root is assets.ErrPermission. A reference naming no
// path, or any path when no roots are set, is assets.ErrNotFound. Fetch failures
// are *assets.FetchError. Probe and decode failures are not errors: they
// are reported as warnings with zero dimensions or the original bytes.
func (p *Pipeline) Process(ctx context.Context, ref assets.Reference, opts Options) (*Result, error) {
	start := time.Now()
	res, kind, err := p.process(ctx, ref, opts)

	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	metrics.PipelineTotal.WithLabelValues(string(kind), pipelineResult(err)).Inc()
	return res, err
}

func pipelineResult(err error) string {
	var fe *assets.FetchError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &fe):
		return "fetch_error"
	case errors.Is(err, assets.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (p *Pipeline) process(ctx context.Context, ref assets.Reference, opts Options) (*Result, mediatypes.Kind, error) {
	h, blob, err := p.load(ctx, ref)
	if err != nil {
		return nil, mediatypes.KindOther, err
	}

	res := &Result{Blob: blob}
	meta := &res.Metadata
	meta.Identifier = h.Identifier
	meta.URI = h.URI
	if meta.URI == "" {
		meta.URI = ref.URI
	}
	meta.Filename = h.Filename
	meta.Orientation = orientation.Normal

	meta.Type = mediatypes.Sniff(blob.Prefix(mediatypes.SniffLen))
	metrics.SniffTotal.WithLabelValues(string(meta.Type)).Inc()
	meta.Kind = classify(meta.Type, h, blob)
	meta.MimeType = mimeType(meta.Type, blob)

	switch meta.Kind {
	case mediatypes.KindImage:
		p.processImage(res, opts)
	case mediatypes.KindVideo:
		p.processVideo(ctx, res, h)
	}

	meta.FileSize = res.Blob.Size()
	if opts.OutputDir != "" {
		if err := p.writeOutput(res, opts.OutputDir); err != nil {
			return nil, meta.Kind, err
		}
	}

	for _, w := range res.Warnings {
		log.Warn("%s: %s", ref, w)
	}
	return res, meta.Kind, nil
}

// load resolves and fetches ref. A reference with no catalog entry falls
// back to the bytes at the path it names.
func (p *Pipeline) load(ctx context.Context, ref assets.Reference) (*assets.Handle, *assets.Blob, error) {
	h, err := p.resolver.ResolveAsset(ctx, ref)
	switch {
	case err == nil:
		blob, err := p.fetcher.FetchSync(ctx, h)
		if err != nil {
			return nil, nil, err
		}
		return h, blob, nil

	case errors.Is(err, assets.ErrNotFound):
		path, ok := directPath(ref)
		if !ok || len(p.roots) == 0 {
			return nil, nil, err
		}
		path, cerr := p.confine(path)
		if cerr != nil {
			log.Warn("Refusing direct read for %s: %v", ref, cerr)
			return nil, nil, cerr
		}
		log.Debug("%s has no catalog entry, reading %s directly", ref, path)
		data, rerr := filesystem.ReadFileWithRetry(path, p.retry)
		if rerr != nil {
			return nil, nil, assets.NewFetchError("", rerr)
		}
		return &assets.Handle{
			URI:       ref.URI,
			Filename:  filepath.Base(path),
			LocalPath: path,
			ByteSize:  int64(len(data)),
		}, assets.NewBlobAt(data, path), nil

	default:
		return nil, nil, err
	}
}

func directPath(ref assets.Reference) (string, bool) {
	if path, ok := resolver.LocalPath(ref.URI); ok {
		return path, true
	}
	if ref.Info != nil {
		return resolver.LocalPath(ref.Info.MediaURL)
	}
	return "", false
}

// confine returns the symlink-free form of path, or an ErrPermission error
// when that form is outside every allowed root.
func (p *Pipeline) confine(path string) (string, error) {
	real := canonicalPath(path)
	for _, root := range p.roots {
		if isSubPath(root, real) {
			return real, nil
		}
	}
	return "", fmt.Errorf("%s is outside the library: %w", path, assets.ErrPermission)
}

// canonicalPath makes path absolute and resolves symlinks. A path that does
// not exist yet keeps its cleaned absolute form.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("Cannot resolve symlinks in %s: %v", abs, err)
		}
		return abs
	}
	return real
}

func isSubPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// classify trusts content over names: a sniffed image type is an image;
// otherwise the catalog kind, the filename and finally the MIME sniffer
// decide.
func classify(t mediatypes.MediaType, h *assets.Handle, blob *assets.Blob) mediatypes.Kind {
	if t.Known() {
		return mediatypes.KindImage
	}
	if h.Kind == mediatypes.KindVideo {
		return mediatypes.KindVideo
	}
	if mediatypes.KindForExtension(h.Filename) == mediatypes.KindVideo {
		return mediatypes.KindVideo
	}
	if strings.HasPrefix(mimetype.Detect(blob.Bytes()).String(), "video/") {
		return mediatypes.KindVideo
	}
	return mediatypes.KindOther
}

func mimeType(t mediatypes.MediaType, blob *assets.Blob) string {
	if t.Known() {
		return t.MimeType()
	}
	return mimetype.Detect(blob.Bytes()).String()
}

func (p *Pipeline) processVideo(ctx context.Context, res *Result, h *assets.Handle) {
	if p.videos == nil {
		return
	}

	probe := *h
	if path := res.Blob.Path(); path != "" {
		probe.LocalPath = path
	}

	dims, code, err := p.videos.ProbeVideoDimensions(ctx, &probe)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("video dimensions unknown: %v", err))
		return
	}
	measured := orientation.Measured{Dimensions: dims, Orientation: code}
	logical := measured.Logical()
	res.Metadata.Width, res.Metadata.Height = logical.Width, logical.Height
	res.Metadata.Orientation = code
}
