package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins worker counts.
const EnvOverride = "WORKERS"

// Multipliers per workload type.
const (
	CPUBound = 1.0
	IOBound  = 2.0
	Mixed    = 1.5
)

// Count returns multiplier workers per available CPU, at least one and at
// most limit (0 means no limit). A positive WORKERS value replaces the
// computed count.
func Count(multiplier float64, limit int) int {
	workers := override()
	if workers == 0 {
		// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

func override() int {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(CPUBound, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(IOBound, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(Mixed, limit)
}
