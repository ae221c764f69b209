package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// =============================================================================
// Mock StatsProvider
// =============================================================================

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// =============================================================================
// Collector Tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, time.Minute)

	if c == nil {
		t.Fatal("Expected non-nil collector")
	}
	if c.interval != time.Minute {
		t.Errorf("Expected interval=1m, got %v", c.interval)
	}
	if c.stopChan == nil {
		t.Error("Expected stopChan to be initialized")
	}
}

func TestCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		Generation:     7,
		TotalAssets:    42,
		Picked:         3,
		Rejected:       2,
		ThumbnailCount: 10,
		PreviewCount:   4,
	}}
	c := NewCollector(provider, time.Minute)
	c.collect()

	if got := testutil.ToFloat64(AssetsTotal); got != 42 {
		t.Errorf("Expected AssetsTotal=42, got %v", got)
	}
	if got := testutil.ToFloat64(CatalogGeneration); got != 7 {
		t.Errorf("Expected CatalogGeneration=7, got %v", got)
	}
	if got := testutil.ToFloat64(AssetsFlagged.WithLabelValues("pick")); got != 3 {
		t.Errorf("Expected picked=3, got %v", got)
	}
	if got := testutil.ToFloat64(CacheEntries.WithLabelValues("preview")); got != 4 {
		t.Errorf("Expected preview entries=4, got %v", got)
	}
}

func TestCollectWithNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Minute)
	// Must not panic
	c.collect()
}

func TestCollectRunsRefreshers(t *testing.T) {
	var runs int
	c := NewCollector(nil, time.Minute, func() { runs++ }, func() { runs++ })
	c.collect()
	c.collect()

	if runs != 4 {
		t.Errorf("Expected 4 refresher runs, got %d", runs)
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestCollectMemoryMetrics(t *testing.T) {
	c := NewCollector(nil, time.Minute)
	c.collectMemory()

	if got := testutil.ToFloat64(GoMemAllocBytes); got <= 0 {
		t.Errorf("Expected positive heap allocation, got %v", got)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(SchedulerCompleted); n != 10 {
		t.Errorf("Expected 10 scheduler completion series, got %d", n)
	}
	if n := testutil.CollectAndCount(CacheHits); n != 2 {
		t.Errorf("Expected 2 cache hit series, got %d", n)
	}
}
