package mediatypes

import "bytes"

// SniffLen is the number of leading bytes Sniff needs to recognize every
// supported signature, including a few ftyp compatible brands.
const SniffLen = 32

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	gif87a       = []byte("GIF87a")
	gif89a       = []byte("GIF89a")
)

var heicBrands = map[string]bool{
	"heic": true,
	"heix": true,
	"hevc": true,
	"hevx": true,
	"heim": true,
	"heis": true,
}

// Structural brands that can front either HEIC or AVIF.
var heifStructuralBrands = map[string]bool{
	"mif1": true,
	"msf1": true,
}

// Sniff determines the MediaType of a blob from its first bytes. Only the
// first SniffLen bytes are examined. File names are never consulted.
func Sniff(prefix []byte) MediaType {
	if len(prefix) > SniffLen {
		prefix = prefix[:SniffLen]
	}

	switch {
	case len(prefix) >= 3 && prefix[0] == 0xFF && prefix[1] == 0xD8 && prefix[2] == 0xFF:
		return TypeJPEG

	case bytes.HasPrefix(prefix, pngSignature):
		return TypePNG

	case bytes.HasPrefix(prefix, gif87a) || bytes.HasPrefix(prefix, gif89a):
		return TypeGIF

	case len(prefix) >= 12 && string(prefix[0:4]) == "RIFF" && string(prefix[8:12]) == "WEBP":
		return TypeWebP

	case len(prefix) >= 12 && string(prefix[4:8]) == "ftyp":
		if isHEIC(prefix) {
			return TypeHEIC
		}
	}

	return TypeUnknown
}

// isHEIC inspects the ftyp box: the major brand at offset 8 and the
// compatible brands following the minor version at offset 16.
func isHEIC(prefix []byte) bool {
	major := string(prefix[8:12])
	if heicBrands[major] {
		return true
	}
	if !heifStructuralBrands[major] {
		return false
	}

	// mif1/msf1 is shared with AVIF; look at what the compatible brands say.
	boxLen := int(prefix[0])<<24 | int(prefix[1])<<16 | int(prefix[2])<<8 | int(prefix[3])
	end := len(prefix)
	if boxLen > 0 && boxLen < end {
		end = boxLen
	}
	for off := 16; off+4 <= end; off += 4 {
		brand := string(prefix[off : off+4])
		if brand == "avif" || brand == "avis" {
			return false
		}
	}
	return true
}
