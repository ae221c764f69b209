// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - PHOTO_DIR: Folder selected at startup when none is remembered (optional)
//   - DATABASE_DIR: Path to the database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_ENABLED: Serve /metrics (default: true)
//   - THUMBNAIL_CACHE_SIZE, PREVIEW_CACHE_SIZE: Cache capacities in entries
//     (default: derived from the memory limit)
//   - THUMBNAIL_SIZE, PREVIEW_SIZE: Long edge of derived images in pixels
//   - THUMBNAIL_QUALITY, PREVIEW_QUALITY: JPEG quality 1-100
//   - CODEC: auto, imaging or vips (default: auto)
//   - PREFETCH_RADIUS: Previews rendered ahead on each side (default: 2)
//   - REQUEST_TIMEOUT: Soft timeout of one render (default: 30s)
//   - SCAN_WORKERS, PREVIEW_WORKERS: Pool size overrides
//   - VERIFY_CONTENT: Hash file content during scans (default: false)
//   - CLOCK_SKEW: Tolerated future modification time (default: 2m)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_IMAGE_REQUESTS: Log thumbnail and preview requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: See package memory
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogMemoryConfig], [LogDatabaseInit], [LogCodecInit], [LogCatalogRestored],
// [LogHTTPRoutes] and [LogServerStarted] print the startup sections;
// [LogShutdownInitiated] and [LogShutdownComplete] bracket shutdown.
package startup
