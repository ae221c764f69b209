package memory

import "testing"

func TestCacheCapacities(t *testing.T) {
	thumbs, previews := CacheCapacities(0, 500, 40)
	if thumbs != 500 || previews != 40 {
		t.Errorf("Expected fallbacks 500/40 without a limit, got %d/%d", thumbs, previews)
	}

	const gib = 1 << 30
	thumbs, previews = CacheCapacities(gib, 500, 40)
	budget := float64(gib) * CacheBudgetRatio
	wantThumbs := int(budget / 5 / ThumbnailBytesEstimate)
	wantPreviews := int(budget * 4 / 5 / PreviewBytesEstimate)
	if thumbs != wantThumbs || previews != wantPreviews {
		t.Errorf("Expected %d/%d, got %d/%d", wantThumbs, wantPreviews, thumbs, previews)
	}

	thumbs, previews = CacheCapacities(1, 500, 40)
	if thumbs != 1 || previews != 1 {
		t.Errorf("Expected minimum capacity 1/1, got %d/%d", thumbs, previews)
	}
}

func TestParseRatio(t *testing.T) {
	tests := map[string]float64{
		"":     DefaultMemoryRatio,
		"0.5":  0.5,
		"1.0":  1.0,
		"1.5":  DefaultMemoryRatio,
		"0":    DefaultMemoryRatio,
		"abc":  DefaultMemoryRatio,
		"-0.2": DefaultMemoryRatio,
	}
	for in, want := range tests {
		if got := parseRatio(in); got != want {
			t.Errorf("parseRatio(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfigureFromEnvWithoutLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Source != "none" {
		t.Errorf("Expected source none, got %q", result.Source)
	}
	if result.Configured() {
		t.Error("Expected not configured")
	}
}

func TestConfigureFromEnvInvalidLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "lots")

	if result := ConfigureFromEnv(); result.Source != "none" {
		t.Errorf("Expected source none for invalid MEMORY_LIMIT, got %q", result.Source)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
