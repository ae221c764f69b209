package startup

import (
	"testing"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/media"
	"photo-catalog/internal/memory"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_BOOL", "TRUE")
	t.Setenv("TEST_BOOL_BAD", "yes")
	t.Setenv("TEST_INT", " 42 ")
	t.Setenv("TEST_INT_BAD", "-3")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_DURATION_BAD", "soon")

	if got := getEnv("TEST_STRING", "d"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("TEST_UNSET", "d"); got != "d" {
		t.Errorf("getEnv default = %q", got)
	}
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("Expected TRUE to parse")
	}
	if getEnvBool("TEST_BOOL_BAD", false) {
		t.Error("Expected invalid bool to fall back to the default")
	}
	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("Expected negative int to fall back, got %d", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration = %s", got)
	}
	if got := getEnvDuration("TEST_DURATION_BAD", time.Second); got != time.Second {
		t.Errorf("Expected invalid duration to fall back, got %s", got)
	}
}

func TestLoadConfig(t *testing.T) {
	dbDir := t.TempDir()
	photoDir := t.TempDir()
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PHOTO_DIR", photoDir)
	t.Setenv("CODEC", "IMAGING")
	t.Setenv("PREVIEW_QUALITY", "150")
	t.Setenv("PREVIEW_SIZE", "1200")
	t.Setenv("VERIFY_CONTENT", "true")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("PREVIEW_WORKERS", "3")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.DatabasePath == "" || config.DatabaseDir != dbDir {
		t.Errorf("Unexpected database location %q / %q", config.DatabaseDir, config.DatabasePath)
	}
	if config.PhotoDir != photoDir {
		t.Errorf("Expected PhotoDir %s, got %s", photoDir, config.PhotoDir)
	}
	if config.Codec != media.CodecImaging {
		t.Errorf("Expected codec to be normalized, got %q", config.Codec)
	}
	if config.PreviewQuality != media.DefaultOptions().PreviewQuality {
		t.Errorf("Expected out-of-range quality to fall back, got %d", config.PreviewQuality)
	}
	if config.DecodeWorkers != 3 {
		t.Errorf("Expected PREVIEW_WORKERS override, got %d", config.DecodeWorkers)
	}

	render := config.RenderOptions()
	if render.PreviewSize != 1200 || render.Codec != media.CodecImaging {
		t.Errorf("Unexpected render options %+v", render)
	}
	scan := config.ScanConfig()
	if !scan.VerifyContent || scan.Workers != config.ScanWorkers {
		t.Errorf("Unexpected scan config %+v", scan)
	}
	if config.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", config.RequestTimeout)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("PHOTO_DIR", "/definitely/not/a/dir")
	t.Setenv("CODEC", "magic")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.PhotoDir != "" {
		t.Errorf("Expected a missing PHOTO_DIR to be ignored, got %q", config.PhotoDir)
	}
	if config.Codec != media.CodecAuto {
		t.Errorf("Expected invalid codec to fall back to auto, got %q", config.Codec)
	}
}

func TestCacheCapacities(t *testing.T) {
	config := &Config{}
	thumbs, previews := config.CacheCapacities(memory.ConfigResult{}, 100, 10)
	if thumbs != 100 || previews != 10 {
		t.Errorf("Expected fallbacks without a memory limit, got %d/%d", thumbs, previews)
	}

	config.PreviewCacheSize = 7
	limited := memory.ConfigResult{GoMemLimit: 1 << 30}
	thumbs, previews = config.CacheCapacities(limited, 100, 10)
	wantThumbs, _ := memory.CacheCapacities(1<<30, 100, 10)
	if thumbs != wantThumbs || previews != 7 {
		t.Errorf("Expected %d/7, got %d/%d", wantThumbs, thumbs, previews)
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/assets", nil).Methods("GET")
	r.HandleFunc("/api/assets/{id}/flags", nil).Methods("PUT")
	r.HandleFunc("/healthz", nil)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("Expected 3 routes, got %d", len(routes))
	}
	if routes[2].Method != "*" {
		t.Errorf("Expected wildcard method for route without methods, got %q", routes[2].Method)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/assets":            "api/assets",
		"/api/assets/{id}/flags": "api/assets",
		"/api/events":            "api/events",
		"/healthz":               "healthz",
		"/":                      "",
	}
	for path, want := range tests {
		if got := getRouteGroup(path); got != want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:             "0 B",
		512:           "512 B",
		1024:          "1.0 KiB",
		1536:          "1.5 KiB",
		1048576:       "1.0 MiB",
		5 * (1 << 30): "5.0 GiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
