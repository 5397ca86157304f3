package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/adrium/goheif" // HEIC format support
	_ "golang.org/x/image/webp"  // WebP format support
)

// ProbeImageDimensions returns the stored (unrotated) pixel dimensions of an
// image blob by parsing its header only. Failures are *assets.ProbeError.
func ProbeImageDimensions(blob *assets.Blob) (mediatypes.Dimensions, error) {
	start := time.Now()
	dims, err := probeImage(blob)
	metrics.ProbeDuration.WithLabelValues(string(mediatypes.KindImage)).Observe(time.Since(start).Seconds())

	result := "success"
	var pe *assets.ProbeError
	if errors.As(err, &pe) {
		result = string(pe.Reason)
	}
	metrics.ProbeTotal.WithLabelValues(string(mediatypes.KindImage), result).Inc()
	return dims, err
}

func probeImage(blob *assets.Blob) (mediatypes.Dimensions, error) {
	t := mediatypes.Sniff(blob.Prefix(mediatypes.SniffLen))
	if t == mediatypes.TypeUnknown {
		return mediatypes.Dimensions{}, &assets.ProbeError{Reason: assets.ProbeUnsupportedFormat}
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(blob.Bytes()))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return mediatypes.Dimensions{}, &assets.ProbeError{
				Reason: assets.ProbeUnsupportedFormat,
				Err:    fmt.Errorf("no decoder registered for %s", t),
			}
		}
		return mediatypes.Dimensions{}, &assets.ProbeError{Reason: assets.ProbeCorrupt, Err: err}
	}

	dims := mediatypes.Dimensions{Width: config.Width, Height: config.Height}
	if !dims.Valid() {
		return mediatypes.Dimensions{}, &assets.ProbeError{
			Reason: assets.ProbeCorrupt,
			Err:    fmt.Errorf("%s header reports %s", format, dims),
		}
	}

	logging.Debug("Probed %s image: %s", format, dims)
	return dims, nil
}
