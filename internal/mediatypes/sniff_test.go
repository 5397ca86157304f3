package mediatypes

import (
	"math/rand"
	"testing"
)

func ftyp(major string, compatible ...string) []byte {
	size := 16 + 4*len(compatible)
	box := []byte{0, 0, 0, byte(size)}
	box = append(box, "ftyp"...)
	box = append(box, major...)
	box = append(box, 0, 0, 0, 0)
	for _, c := range compatible {
		box = append(box, c...)
	}
	return box
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want MediaType
	}{
		{"JPEG SOI", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}, TypeJPEG},
		{"JPEG EXIF", []byte{0xFF, 0xD8, 0xFF, 0xE1}, TypeJPEG},
		{"JPEG minimal", []byte{0xFF, 0xD8, 0xFF}, TypeJPEG},
		{"PNG", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13}, TypePNG},
		{"PNG truncated signature", []byte{0x89, 'P', 'N', 'G'}, TypeUnknown},
		{"GIF87a", []byte("GIF87a\x01\x00"), TypeGIF},
		{"GIF89a", []byte("GIF89a\x01\x00"), TypeGIF},
		{"GIF bad version", []byte("GIF90a"), TypeUnknown},
		{"WebP", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), TypeWebP},
		{"RIFF WAVE", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), TypeUnknown},
		{"HEIC major brand", ftyp("heic", "mif1", "heic"), TypeHEIC},
		{"HEIX major brand", ftyp("heix", "mif1"), TypeHEIC},
		{"mif1 with heic compatible", ftyp("mif1", "heic"), TypeHEIC},
		{"mif1 with avif compatible", ftyp("mif1", "avif", "miaf"), TypeUnknown},
		{"AVIF", ftyp("avif", "mif1"), TypeUnknown},
		{"MP4", ftyp("isom", "iso2", "mp41"), TypeUnknown},
		{"QuickTime", ftyp("qt  "), TypeUnknown},
		{"empty", nil, TypeUnknown},
		{"single byte", []byte{0xFF}, TypeUnknown},
		{"text", []byte("hello, world"), TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.data); got != tt.want {
				t.Errorf("Sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSniffOnlyExaminesPrefix(t *testing.T) {
	data := make([]byte, 4096)
	copy(data, []byte{0xFF, 0xD8, 0xFF})
	if got := Sniff(data); got != TypeJPEG {
		t.Errorf("Sniff() on long blob = %q, want jpeg", got)
	}

	// A signature beyond the prefix must not be picked up.
	late := make([]byte, 128)
	copy(late[SniffLen+8:], pngSignature)
	if got := Sniff(late); got != TypeUnknown {
		t.Errorf("Sniff() matched signature outside prefix: %q", got)
	}
}

func TestSniffRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		buf := make([]byte, SniffLen)
		rng.Read(buf)
		// Avoid accidental real signatures.
		buf[0] = 0x00
		buf[4] = 0x00
		if got := Sniff(buf); got != TypeUnknown {
			t.Fatalf("Sniff(random %x) = %q, want unknown", buf, got)
		}
	}
}

func TestMediaTypeMimeType(t *testing.T) {
	tests := map[MediaType]string{
		TypeJPEG:    "image/jpeg",
		TypePNG:     "image/png",
		TypeGIF:     "image/gif",
		TypeWebP:    "image/webp",
		TypeHEIC:    "image/heic",
		TypeUnknown: "application/octet-stream",
	}
	for mt, want := range tests {
		if got := mt.MimeType(); got != want {
			t.Errorf("%s.MimeType() = %q, want %q", mt, got, want)
		}
	}
	if TypeUnknown.Known() {
		t.Error("TypeUnknown.Known() = true")
	}
}

func TestKindForExtension(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"IMG_0001.HEIC", KindImage},
		{"photo.jpeg", KindImage},
		{".png", KindImage},
		{"clip.MOV", KindVideo},
		{"movie.mp4", KindVideo},
		{"notes.txt", KindOther},
		{"noext", KindOther},
	}
	for _, tt := range tests {
		if got := KindForExtension(tt.name); got != tt.want {
			t.Errorf("KindForExtension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMimeTypeForExtension(t *testing.T) {
	if got := MimeTypeForExtension("clip.mov"); got != "video/quicktime" {
		t.Errorf("MimeTypeForExtension(mov) = %q", got)
	}
	if got := MimeTypeForExtension(".unknown"); got != "application/octet-stream" {
		t.Errorf("MimeTypeForExtension(unknown) = %q", got)
	}
}

func TestDimensions(t *testing.T) {
	d := Dimensions{Width: 4000, Height: 3000}
	if !d.Valid() {
		t.Error("expected valid dimensions")
	}
	if s := d.Swap(); s.Width != 3000 || s.Height != 4000 {
		t.Errorf("Swap() = %v", s)
	}
	if (Dimensions{Width: 0, Height: 10}).Valid() {
		t.Error("zero width reported valid")
	}
	if d.String() != "4000x3000" {
		t.Errorf("String() = %q", d.String())
	}
}
