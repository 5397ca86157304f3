// Package orientation maps stored image orientation to upright pixels and
// logical dimensions.
//
// Codes use EXIF numbering (1..8). Anything outside that range is treated as
// Normal rather than rejected, so every function here is total.
//
//	logical := orientation.LogicalDimensions(stored, code)
//	upright := orientation.Normalize(img, code)
//
// Host frameworks that use their own enumeration convert with
// Code.DisplayOrientation and FromDisplayOrientation.
package orientation
