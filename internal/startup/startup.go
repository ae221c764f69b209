package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/memory"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	// PhotoDir is selected at startup when no folder was remembered. Optional.
	PhotoDir        string
	DatabaseDir     string
	Port            string
	LogHealthChecks bool
	LogImages       bool
	MetricsEnabled  bool

	// Cache capacities in entries; 0 derives them from the memory limit.
	ThumbnailCacheSize int
	PreviewCacheSize   int

	ThumbnailSize    int
	PreviewSize      int
	ThumbnailQuality int
	PreviewQuality   int
	Codec            string
	PrefetchRadius   int

	RequestTimeout time.Duration
	ScanWorkers    int
	DecodeWorkers  int
	VerifyContent  bool
	ClockSkew      time.Duration

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	render := media.DefaultOptions()

	config := &Config{
		PhotoDir:           getEnv("PHOTO_DIR", ""),
		DatabaseDir:        getEnv("DATABASE_DIR", "/database"),
		Port:               getEnv("PORT", "8080"),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", true),
		LogImages:          getEnvBool("LOG_IMAGE_REQUESTS", false),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		ThumbnailCacheSize: getEnvInt("THUMBNAIL_CACHE_SIZE", 0),
		PreviewCacheSize:   getEnvInt("PREVIEW_CACHE_SIZE", 0),
		ThumbnailSize:      getEnvInt("THUMBNAIL_SIZE", render.ThumbnailSize),
		PreviewSize:        getEnvInt("PREVIEW_SIZE", render.PreviewSize),
		ThumbnailQuality:   getEnvInt("THUMBNAIL_QUALITY", render.ThumbnailQuality),
		PreviewQuality:     getEnvInt("PREVIEW_QUALITY", render.PreviewQuality),
		Codec:              strings.ToLower(getEnv("CODEC", media.CodecAuto)),
		PrefetchRadius:     getEnvInt("PREFETCH_RADIUS", 2),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ScanWorkers:        workers.ForScan(64),
		DecodeWorkers:      workers.ForDecode(0),
		VerifyContent:      getEnvBool("VERIFY_CONTENT", false),
		ClockSkew:          getEnvDuration("CLOCK_SKEW", scanner.DefaultClockSkew),
	}

	switch config.Codec {
	case media.CodecAuto, media.CodecImaging, media.CodecVips:
	default:
		logging.Warn("  Invalid CODEC %q, using default: %s", config.Codec, media.CodecAuto)
		config.Codec = media.CodecAuto
	}
	if config.PreviewQuality < 1 || config.PreviewQuality > 100 {
		logging.Warn("  PREVIEW_QUALITY must be 1-100, using default: %d", render.PreviewQuality)
		config.PreviewQuality = render.PreviewQuality
	}
	if config.ThumbnailQuality < 1 || config.ThumbnailQuality > 100 {
		logging.Warn("  THUMBNAIL_QUALITY must be 1-100, using default: %d", render.ThumbnailQuality)
		config.ThumbnailQuality = render.ThumbnailQuality
	}

	logging.Info("  PHOTO_DIR:            %s", valueOrNone(config.PhotoDir))
	logging.Info("  DATABASE_DIR:         %s", config.DatabaseDir)
	logging.Info("  PORT:                 %s", config.Port)
	logging.Info("  METRICS_ENABLED:      %v", config.MetricsEnabled)
	logging.Info("  THUMBNAIL_SIZE:       %d", config.ThumbnailSize)
	logging.Info("  PREVIEW_SIZE:         %d", config.PreviewSize)
	logging.Info("  PREVIEW_QUALITY:      %d", config.PreviewQuality)
	logging.Info("  CODEC:                %s", config.Codec)
	logging.Info("  REQUEST_TIMEOUT:      %s", config.RequestTimeout)
	logging.Info("  SCAN_WORKERS:         %d", config.ScanWorkers)
	logging.Info("  PREVIEW_WORKERS:      %d", config.DecodeWorkers)
	logging.Info("  VERIFY_CONTENT:       %v", config.VerifyContent)
	logging.Info("  CLOCK_SKEW:           %s", config.ClockSkew)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", config.LogHealthChecks)
	logging.Info("  LOG_IMAGE_REQUESTS:   %v", config.LogImages)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err := filepath.Abs(config.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	config.DatabaseDir = databaseDir
	config.DatabasePath = filepath.Join(databaseDir, "catalog.db")
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if config.PhotoDir != "" {
		if info, err := os.Stat(config.PhotoDir); err != nil || !info.IsDir() {
			logging.Warn("  PHOTO_DIR %s is not a readable directory, ignoring", config.PhotoDir)
			config.PhotoDir = ""
		}
	}

	return config, nil
}

// RenderOptions returns the derived-image settings.
func (c *Config) RenderOptions() media.Options {
	return media.Options{
		ThumbnailSize:    c.ThumbnailSize,
		PreviewSize:      c.PreviewSize,
		ThumbnailQuality: c.ThumbnailQuality,
		PreviewQuality:   c.PreviewQuality,
		Codec:            c.Codec,
	}
}

// ScanConfig returns the scanner settings.
func (c *Config) ScanConfig() scanner.Config {
	return scanner.Config{
		Workers:       c.ScanWorkers,
		ClockSkew:     c.ClockSkew,
		VerifyContent: c.VerifyContent,
	}
}

// CacheCapacities resolves the cache sizes. Explicit settings win; otherwise
// the sizes are derived from the Go memory limit, falling back to the defaults.
func (c *Config) CacheCapacities(mem memory.ConfigResult, fallbackThumbs, fallbackPreviews int) (thumbs, previews int) {
	thumbs, previews = memory.CacheCapacities(mem.GoMemLimit, fallbackThumbs, fallbackPreviews)
	if c.ThumbnailCacheSize > 0 {
		thumbs = c.ThumbnailCacheSize
	}
	if c.PreviewCacheSize > 0 {
		previews = c.PreviewCacheSize
	}
	return thumbs, previews
}

// LogMemoryConfig logs the memory limit and the resulting cache sizes
func LogMemoryConfig(mem memory.ConfigResult, thumbs, previews int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	switch mem.Source {
	case "MEMORY_LIMIT":
		logging.Info("  Container limit:  %s", formatBytes(mem.ContainerLimit))
		logging.Info("  GOMEMLIMIT:       %s (%.0f%%)", formatBytes(mem.GoMemLimit), mem.Ratio*100)
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:       %s (from environment)", formatBytes(mem.GoMemLimit))
	default:
		logging.Info("  No memory limit configured")
	}
	logging.Info("  Thumbnail cache:  %d entries", thumbs)
	logging.Info("  Preview cache:    %d entries", previews)
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogCodecInit logs which image codecs are in use
func LogCodecInit(codec string, vipsErr error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CODEC INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Codec mode: %s", codec)
	switch {
	case codec == media.CodecImaging:
		logging.Info("  [OK] Pure Go codec (imaging)")
	case vipsErr != nil:
		logging.Warn("  libvips unavailable: %v", vipsErr)
		logging.Warn("  Falling back to the pure Go codec; camera formats may fail to decode")
	default:
		logging.Info("  [OK] libvips available")
	}
}

// LogCatalogRestored logs the catalog restored from the database
func LogCatalogRestored(folder string, assets int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG")
	logging.Info("------------------------------------------------------------")
	if folder == "" {
		logging.Info("  No folder selected; waiting for POST /api/folder")
		return
	}
	logging.Info("  Folder:  %s", folder)
	logging.Info("  Assets:  %d", assets)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks, logImages bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, group := range groupKeys {
			label := group
			if label == "" {
				label = "root"
			}
			logging.Debug("  [%s]", label)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	logging.Info("    Health check logging: %s", onOff(logHealthChecks))
	logging.Info("    Image request logging: %s", onOff(logImages))
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://localhost:%s/api/assets", config.Port)
	logging.Info("    Events:        ws://localhost:%s/api/events", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           ______      __        __
   / __ \/ /_  ____  / /_____     / ____/___ _/ /_____ _/ /___  ____ _
  / /_/ / __ \/ __ \/ __/ __ \   / /   / __ '/ __/ __ '/ / __ \/ __ '/
 / ____/ / / / /_/ / /_/ /_/ /  / /___/ /_/ / /_/ /_/ / / /_/ / /_/ /
/_/   /_/ /_/\____/\__/\____/   \____/\__,_/\__/\__,_/_/\____/\__, /
                                                             /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
