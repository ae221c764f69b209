package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"photo-catalog/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the container memory given to the Go heap.
	// The rest is left for libvips, decode buffers and goroutine stacks.
	DefaultMemoryRatio = 0.85

	// CacheBudgetRatio is the share of the Go memory limit the preview caches may hold.
	CacheBudgetRatio = 0.25

	// Typical encoded sizes of the derived images.
	ThumbnailBytesEstimate = 24 * 1024
	PreviewBytesEstimate   = 400 * 1024
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerLimit is the container memory limit in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the configured GOMEMLIMIT in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the memory ratio used (0 if not applicable)
	Ratio float64
}

// Configured reports whether a Go memory limit is in effect.
func (r ConfigResult) Configured() bool {
	return r.GoMemLimit > 0
}

// ConfigureFromEnv sets GOMEMLIMIT from the container memory limit.
// Call it early in main() before the caches are sized.
//
// Environment variables:
//   - GOMEMLIMIT: takes precedence when set (standard Go env var)
//   - MEMORY_LIMIT: container memory limit in bytes (Kubernetes Downward API)
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap (default 0.85)
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: "none"}
	}

	memLimit, err := strconv.ParseInt(memLimitStr, 10, 64)
	if err != nil || memLimit <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", memLimitStr, err)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio(os.Getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit))

	return ConfigResult{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil || ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %q invalid or out of range (0.0-1.0), using default %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// CacheCapacities splits a cache budget derived from goMemLimit between the
// thumbnail and preview caches. Without a limit (<= 0) the fallbacks are
// returned. Thumbnails get a fifth of the budget.
func CacheCapacities(goMemLimit int64, fallbackThumbs, fallbackPreviews int) (thumbs, previews int) {
	if goMemLimit <= 0 {
		return fallbackThumbs, fallbackPreviews
	}
	budget := float64(goMemLimit) * CacheBudgetRatio
	thumbs = max(1, int(budget/5/ThumbnailBytesEstimate))
	previews = max(1, int(budget*4/5/PreviewBytesEstimate))
	return thumbs, previews
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
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
