package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/metrics"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() to respect LOG_LEVEL
	vipsLogLevel, logHandler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(logHandler, vipsLogLevel)

	// Start vips with conservative memory settings
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,                // Process one image at a time to control memory
		MaxCacheMem:      50 * 1024 * 1024, // 50MB cache
		MaxCacheSize:     100,              // Max 100 operations cached
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	metrics.VipsAvailable.Set(1)
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// vipsLogging maps the application log level onto libvips' log level and a
// handler that forwards libvips messages into the application log.
func vipsLogging(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(minimum vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, level vips.LogLevel, msg string) {
			// glib levels: lower values are more severe.
			if level > minimum {
				return
			}
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelInfo)
	case logging.LevelInfo:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	case logging.LevelWarn:
		return vips.LogLevelError, forward(vips.LogLevelError)
	default:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	}
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		metrics.VipsAvailable.Set(0)
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsDecoder decodes through libvips. It handles HEIC variants and very
// large images that the standard decoders cannot, and falls back to the
// standard decoder when libvips is not initialized.
type VipsDecoder struct {
	fallback Decoder
	// MaxPixels bounds decoded images as StdDecoder.MaxPixels does.
	MaxPixels int
}

// NewVipsDecoder creates a libvips decoder bounded by maxPixels that
// delegates to fallback when libvips is unavailable.
func NewVipsDecoder(fallback Decoder, maxPixels int) *VipsDecoder {
	if fallback == nil {
		fallback = NewStdDecoder(maxPixels)
	}
	return &VipsDecoder{fallback: fallback, MaxPixels: maxPixels}
}

func (d *VipsDecoder) Name() string {
	return "vips"
}

func (d *VipsDecoder) Decode(data []byte, t mediatypes.MediaType) (image.Image, error) {
	limit := pixelBudget(d.MaxPixels)

	// Headers the Go decoders understand are checked before libvips sees
	// the data at all.
	if config, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkBudget(t, config.Width, config.Height, limit); err != nil {
			return nil, err
		}
	}

	if !IsVipsAvailable() {
		return d.fallback.Decode(data, t)
	}

	// Keep stored orientation; the pipeline applies EXIF orientation itself.
	params := vips.NewImportParams()
	params.AutoRotate.Set(false)

	ref, err := vips.LoadImageFromBuffer(data, params)
	if err != nil {
		return nil, &assets.DecodeError{Format: string(t), Err: fmt.Errorf("vips failed to load image: %w", err)}
	}
	defer ref.Close()

	// Pixels are decoded lazily by the export below.
	if err := checkBudget(t, ref.Width(), ref.Height(), limit); err != nil {
		return nil, err
	}
	logging.Debug("Vips loaded %s image: %dx%d", t, ref.Width(), ref.Height())

	// Lossless round trip into image.Image for the imaging-based resize path.
	pngBytes, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, &assets.DecodeError{Format: string(t), Err: fmt.Errorf("vips export failed: %w", err)}
	}

	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, &assets.DecodeError{Format: string(t), Err: fmt.Errorf("failed to decode vips output: %w", err)}
	}
	return img, nil
}

// SelectDecoder returns the libvips decoder when enabled and initialized, the
// standard decoder otherwise.
func SelectDecoder(vipsEnabled bool, maxPixels int) Decoder {
	std := NewStdDecoder(maxPixels)
	if vipsEnabled && IsVipsAvailable() {
		return NewVipsDecoder(std, maxPixels)
	}
	return std
}
