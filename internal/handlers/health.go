package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/startup"
)

const (
	statusHealthy = "healthy"
	statusIdle    = "idle"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	Uptime     string        `json:"uptime"`
	Folder     string        `json:"folder,omitempty"`
	Generation uint64        `json:"generation"`
	LastScan   asset.Summary `json:"lastScan"`

	// Catalog and cache counts
	TotalAssets     int `json:"totalAssets"`
	Picked          int `json:"picked"`
	Rejected        int `json:"rejected"`
	CachedThumbnail int `json:"cachedThumbnails"`
	CachedPreview   int `json:"cachedPreviews"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. A service with no
// folder selected is idle but still healthy.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.svc.Stats()
	folder := h.svc.Folder()

	response := HealthResponse{
		Status:          statusHealthy,
		Version:         startup.Version,
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		Folder:          folder,
		Generation:      stats.Generation,
		LastScan:        h.svc.Summary(),
		TotalAssets:     stats.TotalAssets,
		Picked:          stats.Picked,
		Rejected:        stats.Rejected,
		CachedThumbnail: stats.ThumbnailCount,
		CachedPreview:   stats.PreviewCount,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}
	if folder == "" {
		response.Status = statusIdle
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
