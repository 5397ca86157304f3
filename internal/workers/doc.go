/*
Package workers sizes worker pools from the CPUs the process may actually use.

runtime.NumCPU reports the host's CPUs even inside a container limited to a
fraction of them. GOMAXPROCS follows the cgroup CPU limit (Go 1.19+), so the
counts here are derived from it:

	workers.ForCPU(8)   // decode and resize: 1 per CPU
	workers.ForIO(16)   // fetches, cloud downloads, catalog queries: 2 per CPU
	workers.ForMixed(8) // fetch then decode: 1.5 per CPU

Operators can pin the count with the WORKERS environment variable. The
override is still capped by the caller's limit:

	env:
	- name: WORKERS
	  value: "4"

All functions are safe for concurrent use.
*/
package workers
