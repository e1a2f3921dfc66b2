package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker-pool size scaled to the CPUs actually available.
// GOMAXPROCS reflects container CPU limits (Go 1.19+), unlike
// runtime.NumCPU which reports the host.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// limit caps the result; use 0 for no cap. The JOB_WORKERS environment
// variable overrides the calculation entirely.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("JOB_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForIO returns a worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
