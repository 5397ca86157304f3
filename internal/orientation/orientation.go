package orientation

import (
	"fmt"
	"image"

	"media-resolver/internal/mediatypes"

	"github.com/disintegration/imaging"
)

// Code is the stored rotation/mirroring state of an image, numbered as in the
// EXIF/TIFF Orientation tag. It describes how the stored pixels relate to the
// upright image, independent of any platform SDK's enumeration.
type Code int

const (
	// Normal: stored pixels are already upright.
	Normal Code = 1
	// MirrorHorizontal: stored pixels are mirrored left to right.
	MirrorHorizontal Code = 2
	// Rotate180: stored pixels are upside down.
	Rotate180 Code = 3
	// MirrorVertical: stored pixels are mirrored top to bottom.
	MirrorVertical Code = 4
	// Transpose: stored pixels are mirrored across the main diagonal.
	Transpose Code = 5
	// Rotate90: display requires a 90° clockwise rotation.
	Rotate90 Code = 6
	// Transverse: stored pixels are mirrored across the anti-diagonal.
	Transverse Code = 7
	// Rotate270: display requires a 270° clockwise (90° counter-clockwise) rotation.
	Rotate270 Code = 8
)

// All lists the eight defined codes.
var All = []Code{Normal, MirrorHorizontal, Rotate180, MirrorVertical, Transpose, Rotate90, Transverse, Rotate270}

// FromEXIF converts a raw EXIF Orientation value. Values outside 1..8 map to Normal.
func FromEXIF(v int) Code {
	c := Code(v)
	if !c.Valid() {
		return Normal
	}
	return c
}

// EXIF returns the EXIF Orientation tag value for c.
func (c Code) EXIF() int {
	return int(c.orNormal())
}

// Valid reports whether c is one of the eight defined codes.
func (c Code) Valid() bool {
	return c >= Normal && c <= Rotate270
}

func (c Code) orNormal() Code {
	if c.Valid() {
		return c
	}
	return Normal
}

// SwapsDimensions reports whether displaying the image exchanges width and height.
func (c Code) SwapsDimensions() bool {
	switch c {
	case Transpose, Rotate90, Transverse, Rotate270:
		return true
	default:
		return false
	}
}

func (c Code) String() string {
	switch c {
	case Normal:
		return "normal"
	case MirrorHorizontal:
		return "mirror-horizontal"
	case Rotate180:
		return "rotate-180"
	case MirrorVertical:
		return "mirror-vertical"
	case Transpose:
		return "transpose"
	case Rotate90:
		return "rotate-90"
	case Transverse:
		return "transverse"
	case Rotate270:
		return "rotate-270"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Measured pairs stored dimensions with the orientation in effect when they
// were measured, so logical dimensions can always be derived correctly.
type Measured struct {
	Dimensions  mediatypes.Dimensions `json:"dimensions"`
	Orientation Code                  `json:"orientation"`
}

// Logical returns the dimensions as a viewer sees them.
func (m Measured) Logical() mediatypes.Dimensions {
	return LogicalDimensions(m.Dimensions, m.Orientation)
}

// LogicalDimensions swaps width and height when c involves a quarter turn,
// and returns d unchanged otherwise.
func LogicalDimensions(d mediatypes.Dimensions, c Code) mediatypes.Dimensions {
	if c.SwapsDimensions() {
		return d.Swap()
	}
	return d
}

// Normalize applies the inverse of the transform implied by c so that the
// result is upright and unmirrored. Unrecognized codes leave img untouched.
func Normalize(img image.Image, c Code) image.Image {
	switch c {
	case MirrorHorizontal:
		return imaging.FlipH(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case MirrorVertical:
		return imaging.FlipV(img)
	case Transpose:
		return imaging.Transpose(img)
	case Rotate90:
		// imaging rotates counter-clockwise; 270 CCW is 90 CW.
		return imaging.Rotate270(img)
	case Transverse:
		return imaging.Transverse(img)
	case Rotate270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Denormalize re-applies the stored transform of c to upright pixels,
// producing the image as it would have been stored. It is the inverse of Normalize.
func Denormalize(img image.Image, c Code) image.Image {
	switch c {
	case Rotate90:
		return imaging.Rotate90(img)
	case Rotate270:
		return imaging.Rotate270(img)
	default:
		// Flips, the half turn and both diagonal mirrors are involutions.
		return Normalize(img, c)
	}
}
