package media

import (
	"image"
	"math"

	"media-resolver/internal/mediatypes"

	"github.com/disintegration/imaging"
)

// FitDimensions returns the size d is scaled to so that it fits within
// maxWidth x maxHeight while keeping its aspect ratio. It never upscales.
// A non-positive bound disables the constraint and d is returned unchanged.
func FitDimensions(d mediatypes.Dimensions, maxWidth, maxHeight int) mediatypes.Dimensions {
	if maxWidth <= 0 || maxHeight <= 0 || !d.Valid() {
		return d
	}

	scale := math.Min(float64(maxWidth)/float64(d.Width), float64(maxHeight)/float64(d.Height))
	if scale >= 1 {
		return d
	}

	return mediatypes.Dimensions{
		Width:  clampDimension(int(math.Round(float64(d.Width)*scale)), maxWidth),
		Height: clampDimension(int(math.Round(float64(d.Height)*scale)), maxHeight),
	}
}

func clampDimension(v, limit int) int {
	if v < 1 {
		return 1
	}
	if v > limit {
		return limit
	}
	return v
}

// NeedsResize reports whether Resize would change an image of size d.
func NeedsResize(d mediatypes.Dimensions, maxWidth, maxHeight int) bool {
	return FitDimensions(d, maxWidth, maxHeight) != d
}

// Resize downscales img to fit within maxWidth x maxHeight using Lanczos
// resampling. Images already within bounds, and calls with a non-positive
// bound, return img itself.
func Resize(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	src := mediatypes.Dimensions{Width: b.Dx(), Height: b.Dy()}

	target := FitDimensions(src, maxWidth, maxHeight)
	if target == src {
		return img
	}

	return imaging.Resize(img, target.Width, target.Height, imaging.Lanczos)
}
