package mediatypes

import "fmt"

// MediaType is the content type of a blob as determined by sniffing its bytes.
type MediaType string

const (
	// TypeJPEG is a JPEG/JFIF or EXIF image.
	TypeJPEG MediaType = "jpeg"
	// TypePNG is a PNG image.
	TypePNG MediaType = "png"
	// TypeGIF is a GIF87a or GIF89a image.
	TypeGIF MediaType = "gif"
	// TypeWebP is a RIFF container carrying a WEBP image.
	TypeWebP MediaType = "webp"
	// TypeHEIC is an ISO-BMFF container carrying a HEIC/HEIF image.
	TypeHEIC MediaType = "heic"
	// TypeUnknown means no known signature matched. It is a valid result,
	// not an error: callers should not assume any specific decoder.
	TypeUnknown MediaType = "unknown"
)

// AllTypes lists every MediaType in sniffing priority order, unknown last.
var AllTypes = []MediaType{TypeJPEG, TypePNG, TypeGIF, TypeWebP, TypeHEIC, TypeUnknown}

var typeMimeTypes = map[MediaType]string{
	TypeJPEG: "image/jpeg",
	TypePNG:  "image/png",
	TypeGIF:  "image/gif",
	TypeWebP: "image/webp",
	TypeHEIC: "image/heic",
}

// MimeType returns the MIME type for t, or "application/octet-stream" for unknown.
func (t MediaType) MimeType() string {
	if mime, ok := typeMimeTypes[t]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Extension returns the preferred file extension (with leading dot) for t.
func (t MediaType) Extension() string {
	switch t {
	case TypeJPEG:
		return ".jpg"
	case TypeUnknown, "":
		return ".bin"
	default:
		return "." + string(t)
	}
}

// Known reports whether t names a concrete image format.
func (t MediaType) Known() bool {
	_, ok := typeMimeTypes[t]
	return ok
}

// Kind is the broad category of a library asset.
type Kind string

const (
	// KindImage is a still image.
	KindImage Kind = "image"
	// KindVideo is a video.
	KindVideo Kind = "video"
	// KindOther is anything the library does not treat as media.
	KindOther Kind = "other"
)

// Dimensions are stored (unrotated) pixel or frame dimensions.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Swap returns d with width and height exchanged.
func (d Dimensions) Swap() Dimensions {
	return Dimensions{Width: d.Height, Height: d.Width}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}
