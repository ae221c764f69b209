package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables that override the computed pool sizes.
const (
	DecodeWorkersEnv = "PREVIEW_WORKERS"
	ScanWorkersEnv   = "SCAN_WORKERS"
)

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit caps the worker count; 0 means no limit. A positive integer in
// the overrideEnv variable replaces the computed value (still capped).
func Count(multiplier float64, limit int, overrideEnv string) int {
	if overrideEnv != "" {
		if override := os.Getenv(overrideEnv); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
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

// ForDecode returns the size of the decode/encode pool (1 per CPU).
// Decoding full-resolution photos is CPU and memory heavy, so the pool never
// exceeds the CPUs available to the process.
func ForDecode(limit int) int {
	return Count(1.0, limit, DecodeWorkersEnv)
}

// ForScan returns the concurrency limit for scan I/O (2 per CPU).
// The limit keeps the scan from exhausting file-handle limits.
func ForScan(limit int) int {
	return Count(2.0, limit, ScanWorkersEnv)
}
