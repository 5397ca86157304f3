package pipeline

import (
	"errors"
	"fmt"
	"image"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/media"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/metrics"
	"media-resolver/internal/orientation"
)

// processImage fills in image metadata and, when opts ask for it, replaces
// the result blob with a resized and/or upright re-encoding.
func (p *Pipeline) processImage(res *Result, opts Options) {
	meta := &res.Metadata
	original := res.Blob

	code := orientation.Read(original.Bytes(), meta.Type)
	stored, err := media.ProbeImageDimensions(original)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("image dimensions unknown: %v", err))
		meta.Orientation = code
		return
	}

	resize := media.NeedsResize(stored, opts.MaxWidth, opts.MaxHeight)
	rotate := opts.Normalize && code != orientation.Normal
	if (!resize && !rotate) || p.decoder == nil {
		p.report(meta, stored, code)
		if !resize && !rotate {
			metrics.ResizeTotal.WithLabelValues(p.decoderName(), "unchanged").Inc()
		}
		return
	}

	out, outType, err := p.transform(original, meta.Type, code, opts)
	if err != nil {
		var de *assets.DecodeError
		result := "encode_error"
		if errors.As(err, &de) {
			result = "decode_error"
		}
		metrics.ResizeTotal.WithLabelValues(p.decoderName(), result).Inc()
		res.Warnings = append(res.Warnings, fmt.Sprintf("returning original bytes: %v", err))
		p.report(meta, stored, code)
		return
	}
	metrics.ResizeTotal.WithLabelValues(p.decoderName(), "resized").Inc()

	res.Blob = assets.NewBlob(out.data)
	res.Transformed = true
	meta.Type = outType
	meta.MimeType = outType.MimeType()
	if opts.Normalize {
		code = orientation.Normal
	}
	p.report(meta, out.stored, code)
}

func (p *Pipeline) decoderName() string {
	if p.decoder == nil {
		return "none"
	}
	return p.decoder.Name()
}

// report records logical dimensions for stored pixels in orientation code.
func (p *Pipeline) report(meta *assets.Metadata, stored mediatypes.Dimensions, code orientation.Code) {
	logical := orientation.Measured{Dimensions: stored, Orientation: code}.Logical()
	meta.Width, meta.Height = logical.Width, logical.Height
	meta.Orientation = code
}

type encoded struct {
	data   []byte
	stored mediatypes.Dimensions
}

// transform decodes, resizes, optionally normalizes and re-encodes. The
// size bound applies to stored pixels, so rotation never changes how far an
// image is scaled.
func (p *Pipeline) transform(blob *assets.Blob, t mediatypes.MediaType, code orientation.Code, opts Options) (*encoded, mediatypes.MediaType, error) {
	phase := time.Now()
	img, err := p.decoder.Decode(blob.Bytes(), t)
	metrics.ResizeDuration.WithLabelValues("decode").Observe(time.Since(phase).Seconds())
	if err != nil {
		return nil, t, err
	}

	phase = time.Now()
	img = media.Resize(img, opts.MaxWidth, opts.MaxHeight)
	metrics.ResizeDuration.WithLabelValues("resize").Observe(time.Since(phase).Seconds())

	if opts.Normalize {
		phase = time.Now()
		img = orientation.Normalize(img, code)
		metrics.ResizeDuration.WithLabelValues("normalize").Observe(time.Since(phase).Seconds())
	}

	phase = time.Now()
	data, outType, err := media.Encode(img, t, opts.Quality)
	metrics.ResizeDuration.WithLabelValues("encode").Observe(time.Since(phase).Seconds())
	if err != nil {
		return nil, t, err
	}

	return &encoded{data: data, stored: boundsOf(img)}, outType, nil
}

func boundsOf(img image.Image) mediatypes.Dimensions {
	b := img.Bounds()
	return mediatypes.Dimensions{Width: b.Dx(), Height: b.Dy()}
}
