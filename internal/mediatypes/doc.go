// Package mediatypes provides shared type definitions and content sniffing for
// the media-resolver packages.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// # Media Types
//
// MediaType is the closed set of image formats the resolver recognizes:
//
//	mediatypes.TypeJPEG
//	mediatypes.TypePNG
//	mediatypes.TypeGIF
//	mediatypes.TypeWebP
//	mediatypes.TypeHEIC
//	mediatypes.TypeUnknown // no signature matched; treat conservatively
//
// # Sniffing
//
// Use Sniff on the first SniffLen bytes of a blob. File names and extensions are
// user controlled and often wrong for cloud-exported assets, so they are never
// used to determine a MediaType:
//
//	t := mediatypes.Sniff(data)
//	mime := t.MimeType() // e.g., "image/jpeg"
//
// # Extensions
//
// KindForExtension and MimeTypeForExtension classify catalog entries (image vs
// video) and provide container MIME types for videos, whose bytes are not sniffed.
package mediatypes
