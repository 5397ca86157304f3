package media

import (
	"bytes"
	"fmt"
	"image"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxPixels bounds how large an image the standard decoder will
	// materialize. A 40MP image uses ~160MB as NRGBA.
	DefaultMaxPixels = 40_000_000

	// DefaultJPEGQuality is used when re-encoding resized images.
	DefaultJPEGQuality = 90
)

// Decoder turns encoded bytes into pixels. Implementations return pixels in
// stored orientation: EXIF orientation is never applied during decode.
// Failures are *assets.DecodeError.
type Decoder interface {
	Decode(data []byte, t mediatypes.MediaType) (image.Image, error)
	// Name labels the decoder in logs and metrics.
	Name() string
}

// StdDecoder decodes with the formats registered in the image package.
type StdDecoder struct {
	// MaxPixels rejects images whose header reports more pixels than this
	// before any pixel memory is allocated. Zero means DefaultMaxPixels.
	MaxPixels int
}

// NewStdDecoder creates a decoder bounded by maxPixels.
func NewStdDecoder(maxPixels int) *StdDecoder {
	return &StdDecoder{MaxPixels: maxPixels}
}

func (d *StdDecoder) Name() string {
	return "std"
}

func (d *StdDecoder) Decode(data []byte, t mediatypes.MediaType) (image.Image, error) {
	limit := pixelBudget(d.MaxPixels)

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &assets.DecodeError{Format: string(t), Err: err}
	}
	if err := checkBudget(t, config.Width, config.Height, limit); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &assets.DecodeError{Format: string(t), Err: err}
	}
	return img, nil
}

func pixelBudget(maxPixels int) int {
	if maxPixels <= 0 {
		return DefaultMaxPixels
	}
	return maxPixels
}

// checkBudget rejects a width x height image larger than limit pixels.
func checkBudget(t mediatypes.MediaType, width, height, limit int) error {
	if int64(width)*int64(height) > int64(limit) {
		return &assets.DecodeError{
			Format: string(t),
			Err:    fmt.Errorf("%dx%d exceeds decode budget of %d pixels", width, height, limit),
		}
	}
	return nil
}

// Encode re-encodes img. JPEG, PNG and GIF keep their format; formats
// without an encoder (WebP, HEIC) are written as JPEG. The returned type is
// the format actually written.
func Encode(img image.Image, t mediatypes.MediaType, quality int) ([]byte, mediatypes.MediaType, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var format imaging.Format
	out := t
	switch t {
	case mediatypes.TypePNG:
		format = imaging.PNG
	case mediatypes.TypeGIF:
		format = imaging.GIF
	default:
		format = imaging.JPEG
		out = mediatypes.TypeJPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, t, fmt.Errorf("encode %s: %w", out, err)
	}

	if out != t {
		logging.Debug("Re-encoded %s output as %s", t, out)
	}
	return buf.Bytes(), out, nil
}
