package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/filesystem"
	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/metrics"
	"media-resolver/internal/orientation"
)

// DefaultBinary is the ffprobe executable looked up on PATH.
const DefaultBinary = "ffprobe"

// VideoInfo describes the first video stream of a file.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
	// Rotation is the clockwise rotation in degrees needed to display the
	// stored frames upright.
	Rotation int `json:"rotation"`
}

// Dimensions returns the stored (unrotated) frame size.
func (v *VideoInfo) Dimensions() mediatypes.Dimensions {
	return mediatypes.Dimensions{Width: v.Width, Height: v.Height}
}

// Orientation maps the stream rotation to an orientation code.
func (v *VideoInfo) Orientation() orientation.Code {
	return orientation.FromRotation(v.Rotation)
}

// Prober reads video metadata by running ffprobe.
type Prober struct {
	binary string
	retry  filesystem.RetryConfig
}

// NewProber creates a prober for the given ffprobe binary; empty means
// DefaultBinary.
func NewProber(binary string) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{binary: binary, retry: filesystem.DefaultRetryConfig()}
}

// Available reports whether the ffprobe binary can be found.
func (p *Prober) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// ProbeVideoDimensions returns the natural frame size of the video behind h
// and the orientation its container asks players to apply. The handle must
// have a local path.
func (p *Prober) ProbeVideoDimensions(ctx context.Context, h *assets.Handle) (mediatypes.Dimensions, orientation.Code, error) {
	if h == nil || h.LocalPath == "" {
		return mediatypes.Dimensions{}, orientation.Normal, &assets.ProbeError{
			Reason: assets.ProbeUnsupportedFormat,
			Err:    errors.New("video has no local path"),
		}
	}

	start := time.Now()
	info, err := p.VideoInfo(ctx, h.LocalPath)
	err = asProbeError(err)
	metrics.ProbeDuration.WithLabelValues(string(mediatypes.KindVideo)).Observe(time.Since(start).Seconds())

	result := "success"
	var pe *assets.ProbeError
	if errors.As(err, &pe) {
		result = string(pe.Reason)
	}
	metrics.ProbeTotal.WithLabelValues(string(mediatypes.KindVideo), result).Inc()
	if err != nil {
		return mediatypes.Dimensions{}, orientation.Normal, err
	}

	return info.Dimensions(), info.Orientation(), nil
}

// asProbeError folds failures into the probe taxonomy. A missing ffprobe
// binary means the format cannot be handled here; context errors pass
// through untouched.
func asProbeError(err error) error {
	var pe *assets.ProbeError
	switch {
	case err == nil, errors.As(err, &pe),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, exec.ErrNotFound):
		return &assets.ProbeError{Reason: assets.ProbeUnsupportedFormat, Err: err}
	default:
		return &assets.ProbeError{Reason: assets.ProbeCorrupt, Err: err}
	}
}

// VideoInfo runs ffprobe against path and parses its first video stream.
func (p *Prober) VideoInfo(ctx context.Context, path string) (*VideoInfo, error) {
	if _, err := filesystem.StatWithRetry(path, p.retry); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ffprobe exits non-zero for files it cannot parse.
			return nil, &assets.ProbeError{
				Reason: assets.ProbeCorrupt,
				Err:    fmt.Errorf("ffprobe error: %w - %s", err, strings.TrimSpace(stderr.String())),
			}
		}
		return nil, fmt.Errorf("ffprobe error: %w", err)
	}

	info, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	logging.Debug("ffprobe %s: %dx%d %s rotation=%d", path, info.Width, info.Height, info.Codec, info.Rotation)
	return info, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Duration  string            `json:"duration"`
	Tags      map[string]string `json:"tags"`
	SideData  []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// ParseOutput extracts VideoInfo from ffprobe's JSON output. Output without
// a video stream is reported as unsupportedFormat; a stream without a usable
// frame size as corrupt.
func ParseOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &assets.ProbeError{Reason: assets.ProbeCorrupt, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	var stream *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			stream = &out.Streams[i]
			break
		}
	}
	if stream == nil {
		return nil, &assets.ProbeError{Reason: assets.ProbeUnsupportedFormat, Err: errors.New("no video stream")}
	}

	info := &VideoInfo{
		Width:    stream.Width,
		Height:   stream.Height,
		Codec:    stream.CodecName,
		Rotation: streamRotation(stream),
	}
	if !info.Dimensions().Valid() {
		return nil, &assets.ProbeError{
			Reason: assets.ProbeCorrupt,
			Err:    fmt.Errorf("invalid frame size %dx%d", stream.Width, stream.Height),
		}
	}

	duration := out.Format.Duration
	if duration == "" {
		duration = stream.Duration
	}
	info.Duration, _ = strconv.ParseFloat(duration, 64)

	return info, nil
}

// streamRotation returns the clockwise display rotation. Older containers
// carry it as a "rotate" tag; newer ffprobe versions report a display matrix
// whose rotation is counter-clockwise.
func streamRotation(s *probeStream) int {
	for _, sd := range s.SideData {
		if sd.SideDataType == "Display Matrix" {
			return normalizeDegrees(-int(sd.Rotation))
		}
	}
	if v, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return normalizeDegrees(deg)
		}
	}
	return 0
}

func normalizeDegrees(d int) int {
	return ((d % 360) + 360) % 360
}
