package orientation

import (
	"image"
	"image/color"
	"testing"

	"media-resolver/internal/mediatypes"
	"media-resolver/internal/testutil"
)

// marked returns a 4x2 image with a single red pixel at the top-left corner.
func marked() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func redAt(img image.Image) (int, int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r > 0 {
				return x - b.Min.X, y - b.Min.Y
			}
		}
	}
	return -1, -1
}

func TestNormalizeRoundTrip(t *testing.T) {
	src := testutil.Gradient(7, 5)

	for _, code := range All {
		t.Run(code.String(), func(t *testing.T) {
			upright := Normalize(src, code)
			back := Denormalize(upright, code)
			if !testutil.Equal(src, back) {
				t.Errorf("Denormalize(Normalize(img, %v)) differs from original", code)
			}
		})
	}
}

func TestNormalizeUnknownCodeIsIdentity(t *testing.T) {
	src := testutil.Gradient(3, 2)
	for _, code := range []Code{0, -1, 9, 100} {
		if got := Normalize(src, code); !testutil.Equal(src, got) {
			t.Errorf("Normalize with code %d changed the image", code)
		}
	}
}

// TestNormalizeMovesStoredCorner checks where the stored top-left pixel ends
// up in the upright image for every code.
func TestNormalizeMovesStoredCorner(t *testing.T) {
	tests := []struct {
		code         Code
		wantW, wantH int
		wantX, wantY int
	}{
		{Normal, 4, 2, 0, 0},
		{MirrorHorizontal, 4, 2, 3, 0},
		{Rotate180, 4, 2, 3, 1},
		{MirrorVertical, 4, 2, 0, 1},
		{Transpose, 2, 4, 0, 0},
		{Rotate90, 2, 4, 1, 0},
		{Transverse, 2, 4, 1, 3},
		{Rotate270, 2, 4, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got := Normalize(marked(), tt.code)
			if w, h := got.Bounds().Dx(), got.Bounds().Dy(); w != tt.wantW || h != tt.wantH {
				t.Fatalf("size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if x, y := redAt(got); x != tt.wantX || y != tt.wantY {
				t.Errorf("marked pixel at (%d,%d), want (%d,%d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestLogicalDimensions(t *testing.T) {
	stored := mediatypes.Dimensions{Width: 4000, Height: 3000}
	for _, code := range All {
		got := LogicalDimensions(stored, code)
		rotated := code == Transpose || code == Rotate90 || code == Transverse || code == Rotate270
		want := stored
		if rotated {
			want = stored.Swap()
		}
		if got != want {
			t.Errorf("LogicalDimensions(%v, %v) = %v, want %v", stored, code, got, want)
		}
		if code.SwapsDimensions() != rotated {
			t.Errorf("%v.SwapsDimensions() = %v", code, code.SwapsDimensions())
		}
	}

	if got := LogicalDimensions(stored, Code(42)); got != stored {
		t.Errorf("unknown code changed dimensions: %v", got)
	}

	m := Measured{Dimensions: stored, Orientation: Rotate90}
	if got := m.Logical(); got.Width != 3000 || got.Height != 4000 {
		t.Errorf("Measured.Logical() = %v", got)
	}
}

func TestNormalizeMatchesLogicalDimensions(t *testing.T) {
	src := testutil.Gradient(6, 3)
	stored := mediatypes.Dimensions{Width: 6, Height: 3}
	for _, code := range All {
		got := Normalize(src, code).Bounds()
		want := LogicalDimensions(stored, code)
		if got.Dx() != want.Width || got.Dy() != want.Height {
			t.Errorf("%v: upright %dx%d, logical %v", code, got.Dx(), got.Dy(), want)
		}
	}
}

func TestFromEXIF(t *testing.T) {
	for v := 1; v <= 8; v++ {
		if got := FromEXIF(v); got.EXIF() != v {
			t.Errorf("FromEXIF(%d).EXIF() = %d", v, got.EXIF())
		}
	}
	for _, v := range []int{0, -3, 9, 65535} {
		if got := FromEXIF(v); got != Normal {
			t.Errorf("FromEXIF(%d) = %v, want normal", v, got)
		}
	}
	if Code(0).EXIF() != 1 {
		t.Error("invalid code should report EXIF value 1")
	}
}

func TestTransformRoundTrip(t *testing.T) {
	for _, code := range All {
		if got := FromTransform(code.Transform()); got != code {
			t.Errorf("FromTransform(%v.Transform()) = %v", code, got)
		}
	}
	if got := FromTransform(Transform{Rotation: -90}); got != Rotate270 {
		t.Errorf("FromTransform(-90) = %v, want rotate-270", got)
	}
	if got := FromTransform(Transform{Rotation: 45}); got != Normal {
		t.Errorf("FromTransform(45) = %v, want normal", got)
	}
	if got := FromRotation(90); got != Rotate90 {
		t.Errorf("FromRotation(90) = %v", got)
	}
	if got := FromRotation(450); got != Rotate90 {
		t.Errorf("FromRotation(450) = %v", got)
	}
}

func TestDisplayOrientationRoundTrip(t *testing.T) {
	seen := make(map[DisplayOrientation]bool)
	for _, code := range All {
		d := code.DisplayOrientation()
		if seen[d] {
			t.Errorf("display orientation %v used twice", d)
		}
		seen[d] = true
		if got := FromDisplayOrientation(d); got != code {
			t.Errorf("FromDisplayOrientation(%v) = %v, want %v", d, got, code)
		}
	}

	if Rotate90.DisplayOrientation() != DisplayRight {
		t.Errorf("Rotate90 maps to %v, want right", Rotate90.DisplayOrientation())
	}
	if Rotate270.DisplayOrientation() != DisplayLeft {
		t.Errorf("Rotate270 maps to %v, want left", Rotate270.DisplayOrientation())
	}
	if FromDisplayOrientation(DisplayOrientation(99)) != Normal {
		t.Error("unknown display orientation should map to normal")
	}
}
