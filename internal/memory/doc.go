// Package memory keeps image decoding inside the container's memory limit.
//
// Unlike GOMAXPROCS, GOMEMLIMIT is not derived from cgroup limits, so
// [ConfigureFromEnv] sets it from the Kubernetes Downward API:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins.
//   - MEMORY_LIMIT: container limit in bytes.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     The remainder is left for libvips, ffprobe and goroutine stacks.
//
// A deployment passes the limit through:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// [DecodePixelBudget] turns the limit into the largest image the decoders
// may expand, and [Monitor] pauses batch work while the heap is above its
// critical water mark.
package memory
