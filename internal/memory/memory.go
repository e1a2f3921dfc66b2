package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-gallery/internal/logging"
)

// DefaultRatio is the share of the container memory limit given to the Go
// heap. The remainder is headroom for ffmpeg subprocesses and image decode
// buffers, which live outside the Go runtime's accounting.
const DefaultRatio = 0.85

// ConfigureFromEnv sets GOMEMLIMIT from the container's memory limit. Call
// it early in main, before significant allocations.
//
// GOMEMLIMIT, when set, wins. Otherwise MEMORY_LIMIT (bytes, typically from
// the Kubernetes Downward API) scaled by MEMORY_RATIO is applied. Returns
// the configured limit in bytes, or 0 when nothing was configured.
func ConfigureFromEnv() int64 {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			return limit
		}
		return 0
	}

	limitStr := os.Getenv("MEMORY_LIMIT")
	if limitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unconfigured")
		return 0
	}
	containerLimit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q", limitStr)
		return 0
	}

	ratio := DefaultRatio
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		if parsed, err := strconv.ParseFloat(ratioStr, 64); err == nil && parsed > 0 && parsed <= 1.0 {
			ratio = parsed
		} else {
			logging.Warn("Ignoring invalid MEMORY_RATIO %q", ratioStr)
		}
	}

	goLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goLimit)
	logging.Info("GOMEMLIMIT configured to %d bytes (%.0f%% of %d)", goLimit, ratio*100, containerLimit)
	return goLimit
}
