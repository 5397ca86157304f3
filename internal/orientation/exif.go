package orientation

import (
	"bytes"
	"encoding/binary"
	"errors"

	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"

	"github.com/adrium/goheif"
	"github.com/rwcarlsen/goexif/exif"
)

var errNoExif = errors.New("no exif payload")

// Read extracts the stored orientation from image bytes of the given type.
// JPEG carries it in the APP1 EXIF segment; HEIC in its Exif item. Any other
// type, or a missing or unreadable tag, yields Normal.
func Read(data []byte, t mediatypes.MediaType) Code {
	var payload []byte
	switch t {
	case mediatypes.TypeJPEG:
		payload = data
	case mediatypes.TypeHEIC:
		p, err := heicExif(data)
		if err != nil {
			logging.Debug("HEIC exif not available: %v", err)
			return Normal
		}
		payload = p
	default:
		return Normal
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		logging.Debug("EXIF decode failed for %s: %v", t, err)
		return Normal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Normal
	}
	v, err := tag.Int(0)
	if err != nil {
		return Normal
	}
	return FromEXIF(v)
}

// heicExif returns the TIFF structure inside a HEIC Exif item. Depending on
// the writer the item starts with the TIFF header itself, with a 4-byte
// big-endian offset to it, or with an "Exif\0\0" marker.
func heicExif(data []byte) ([]byte, error) {
	raw, err := goheif.ExtractExif(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return tiffPayload(raw)
}

var (
	tiffLE     = []byte("II*\x00")
	tiffBE     = []byte("MM\x00*")
	exifMarker = []byte("Exif\x00\x00")
)

func tiffPayload(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, tiffLE) || bytes.HasPrefix(raw, tiffBE) {
		return raw, nil
	}
	if len(raw) >= 8 {
		start := 4 + int(binary.BigEndian.Uint32(raw[:4]))
		if start >= 4 && start+4 <= len(raw) {
			if p := raw[start:]; bytes.HasPrefix(p, tiffLE) || bytes.HasPrefix(p, tiffBE) {
				return p, nil
			}
		}
	}
	if i := bytes.Index(raw, exifMarker); i >= 0 && i+len(exifMarker) < len(raw) {
		return raw[i+len(exifMarker):], nil
	}
	return nil, errNoExif
}
