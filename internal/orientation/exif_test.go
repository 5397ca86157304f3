package orientation

import (
	"testing"

	"media-resolver/internal/mediatypes"
	"media-resolver/internal/testutil"
)

func TestReadJPEG(t *testing.T) {
	base := testutil.EncodeJPEG(t, testutil.Gradient(16, 8))

	for _, code := range All {
		t.Run(code.String(), func(t *testing.T) {
			data := testutil.WithEXIFOrientation(t, base, code.EXIF())
			if got := Read(data, mediatypes.TypeJPEG); got != code {
				t.Errorf("Read() = %v, want %v", got, code)
			}
		})
	}
}

func TestReadWithoutEXIF(t *testing.T) {
	jpg := testutil.EncodeJPEG(t, testutil.Gradient(8, 8))
	if got := Read(jpg, mediatypes.TypeJPEG); got != Normal {
		t.Errorf("Read(no exif) = %v, want normal", got)
	}

	png := testutil.EncodePNG(t, testutil.Gradient(8, 8))
	if got := Read(png, mediatypes.TypePNG); got != Normal {
		t.Errorf("Read(png) = %v, want normal", got)
	}

	if got := Read([]byte("garbage"), mediatypes.TypeHEIC); got != Normal {
		t.Errorf("Read(corrupt heic) = %v, want normal", got)
	}
}

func TestReadInvalidTagValue(t *testing.T) {
	jpg := testutil.WithEXIFOrientation(t, testutil.EncodeJPEG(t, testutil.Gradient(8, 8)), 12)
	if got := Read(jpg, mediatypes.TypeJPEG); got != Normal {
		t.Errorf("Read(orientation=12) = %v, want normal", got)
	}
}

func TestTiffPayload(t *testing.T) {
	tiff := []byte("MM\x00*\x00\x00\x00\x08")

	tests := []struct {
		name string
		raw  []byte
		ok   bool
	}{
		{"bare tiff", tiff, true},
		{"offset prefixed", append([]byte{0, 0, 0, 6, 'E', 'x', 'i', 'f', 0, 0}, tiff...), true},
		{"marker only", append([]byte("xxExif\x00\x00"), tiff...), true},
		{"garbage", []byte("not exif at all"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tiffPayload(tt.raw)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(got[:4]) != "MM\x00*" {
					t.Errorf("payload starts with %q", got[:4])
				}
			} else if err == nil {
				t.Error("expected error")
			}
		})
	}
}
