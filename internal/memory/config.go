package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-resolver/internal/logging"
	"media-resolver/internal/metrics"
)

const (
	// DefaultMemoryRatio is the share of container memory given to the Go heap.
	DefaultMemoryRatio = 0.85

	// bytesPerPixel is the NRGBA working size of a decoded pixel.
	bytesPerPixel = 4

	// decodeShare is the fraction of the limit one decode may use. Resize and
	// orientation each hold another full copy while a batch runs in parallel.
	decodeShare = 8

	// MinDecodePixels keeps small containers usable for ordinary photos.
	MinDecodePixels = 12_000_000
)

// ConfigResult describes how GOMEMLIMIT was configured.
type ConfigResult struct {
	Configured bool
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO unless
// GOMEMLIMIT is already set. Call it early in main.
func ConfigureFromEnv() ConfigResult {
	result := configureFromEnv()
	if result.GoMemLimit > 0 {
		metrics.GoMemLimitBytes.Set(float64(result.GoMemLimit))
	}
	return result
}

func configureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	limitStr := os.Getenv("MEMORY_LIMIT")
	if limitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: "none"}
	}

	containerLimit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", limitStr)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio(os.Getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using default %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

// DecodePixelBudget returns how many pixels a single decode may expand to
// under limitBytes, capped at ceiling. A non-positive limit yields ceiling.
func DecodePixelBudget(limitBytes int64, ceiling int) int {
	if limitBytes <= 0 {
		return ceiling
	}
	budget := limitBytes / decodeShare / bytesPerPixel
	if budget < MinDecodePixels {
		budget = MinDecodePixels
	}
	if ceiling > 0 && budget > int64(ceiling) {
		budget = int64(ceiling)
	}
	return int(budget)
}

// FormatBytes formats b using binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
