// Package media holds the pixel-level pieces of the pipeline: header-only
// dimension probing, bounded Lanczos downscaling, the Decoder abstraction over
// the standard library decoders and libvips, and re-encoding.
//
// Codecs are never implemented here. Decoding goes through the formats
// registered with the image package (jpeg, png, gif, x/image/webp, goheif) or
// through libvips when InitVips succeeded.
package media
