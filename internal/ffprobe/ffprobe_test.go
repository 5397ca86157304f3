package ffprobe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"media-resolver/internal/assets"
	"media-resolver/internal/orientation"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name         string
		output       string
		wantWidth    int
		wantHeight   int
		wantRotation int
		wantCode     orientation.Code
	}{
		{
			name: "landscape without rotation",
			output: `{"streams":[{"codec_type":"video","codec_name":"h264","width":1920,"height":1080}],
				"format":{"duration":"12.5"}}`,
			wantWidth: 1920, wantHeight: 1080, wantRotation: 0, wantCode: orientation.Normal,
		},
		{
			name: "rotate tag",
			output: `{"streams":[{"codec_type":"video","codec_name":"hevc","width":1920,"height":1080,
				"tags":{"rotate":"90"}}],"format":{}}`,
			wantWidth: 1920, wantHeight: 1080, wantRotation: 90, wantCode: orientation.Rotate90,
		},
		{
			name: "display matrix",
			output: `{"streams":[{"codec_type":"video","codec_name":"hevc","width":3840,"height":2160,
				"side_data_list":[{"side_data_type":"Display Matrix","rotation":-90}]}]}`,
			wantWidth: 3840, wantHeight: 2160, wantRotation: 90, wantCode: orientation.Rotate90,
		},
		{
			name: "display matrix wins over tag",
			output: `{"streams":[{"codec_type":"video","width":640,"height":480,"tags":{"rotate":"90"},
				"side_data_list":[{"side_data_type":"Display Matrix","rotation":180}]}]}`,
			wantWidth: 640, wantHeight: 480, wantRotation: 180, wantCode: orientation.Rotate180,
		},
		{
			name: "audio stream first",
			output: `{"streams":[{"codec_type":"audio","codec_name":"aac"},
				{"codec_type":"video","codec_name":"vp9","width":320,"height":240,"tags":{"rotate":"-90"}}]}`,
			wantWidth: 320, wantHeight: 240, wantRotation: 270, wantCode: orientation.Rotate270,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseOutput([]byte(tt.output))
			if err != nil {
				t.Fatalf("ParseOutput() error = %v", err)
			}
			if info.Width != tt.wantWidth || info.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", info.Width, info.Height, tt.wantWidth, tt.wantHeight)
			}
			if info.Rotation != tt.wantRotation {
				t.Errorf("Rotation = %d, want %d", info.Rotation, tt.wantRotation)
			}
			if got := info.Orientation(); got != tt.wantCode {
				t.Errorf("Orientation() = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestParseOutputDuration(t *testing.T) {
	info, err := ParseOutput([]byte(`{"streams":[{"codec_type":"video","width":2,"height":2,"duration":"3.25"}]}`))
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}
	if info.Duration != 3.25 {
		t.Errorf("Duration = %v, want 3.25 from the stream", info.Duration)
	}
}

func TestParseOutputErrors(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   assets.ProbeReason
	}{
		{"not json", `ffprobe: garbage`, assets.ProbeCorrupt},
		{"no video stream", `{"streams":[{"codec_type":"audio"}]}`, assets.ProbeUnsupportedFormat},
		{"no streams", `{"streams":[]}`, assets.ProbeUnsupportedFormat},
		{"zero size", `{"streams":[{"codec_type":"video","width":0,"height":1080}]}`, assets.ProbeCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput([]byte(tt.output))
			var pe *assets.ProbeError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseOutput() error = %v, want *ProbeError", err)
			}
			if pe.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", pe.Reason, tt.want)
			}
		})
	}
}

func TestProbeVideoDimensionsRequiresLocalPath(t *testing.T) {
	p := NewProber("")
	for _, h := range []*assets.Handle{nil, {Identifier: "cloud-only"}} {
		_, _, err := p.ProbeVideoDimensions(context.Background(), h)
		var pe *assets.ProbeError
		if !errors.As(err, &pe) {
			t.Errorf("ProbeVideoDimensions(%v) error = %v, want *ProbeError", h, err)
		}
	}
}

func TestProbeVideoDimensionsCorruptFile(t *testing.T) {
	p := NewProber("")
	if !p.Available() {
		t.Skip("ffprobe not installed")
	}

	path := filepath.Join(t.TempDir(), "broken.mp4")
	if err := os.WriteFile(path, []byte("definitely not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := p.ProbeVideoDimensions(context.Background(), &assets.Handle{Identifier: "x", LocalPath: path})
	var pe *assets.ProbeError
	if !errors.As(err, &pe) || pe.Reason != assets.ProbeCorrupt {
		t.Errorf("ProbeVideoDimensions() error = %v, want corrupt ProbeError", err)
	}
}

func TestProbeVideoDimensionsIntegration(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	p := NewProber("")
	if !p.Available() {
		t.Skip("ffprobe not installed")
	}

	path := filepath.Join(t.TempDir(), "clip.mp4")
	cmd := exec.Command("ffmpeg", "-v", "error", "-f", "lavfi", "-i", "testsrc=size=320x240:rate=1",
		"-frames:v", "1", "-pix_fmt", "yuv420p", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg could not create a test clip: %v: %s", err, out)
	}

	d, code, err := p.ProbeVideoDimensions(context.Background(), &assets.Handle{Identifier: "clip", LocalPath: path})
	if err != nil {
		t.Fatalf("ProbeVideoDimensions() error = %v", err)
	}
	if d.Width != 320 || d.Height != 240 {
		t.Errorf("dimensions = %v, want 320x240", d)
	}
	if code != orientation.Normal {
		t.Errorf("orientation = %v, want Normal", code)
	}
}

func TestProbeVideoDimensionsMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProber("ffprobe-not-installed-anywhere")
	if p.Available() {
		t.Skip("unexpected binary on PATH")
	}
	_, _, err := p.ProbeVideoDimensions(context.Background(), &assets.Handle{Identifier: "x", LocalPath: path})
	var pe *assets.ProbeError
	if !errors.As(err, &pe) || pe.Reason != assets.ProbeUnsupportedFormat {
		t.Errorf("ProbeVideoDimensions() error = %v, want unsupportedFormat ProbeError", err)
	}
}
