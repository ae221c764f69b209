package metrics

import (
	"runtime"
	"runtime/debug"
	"time"

	"photo-catalog/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	Stats() Stats
}

// Stats holds the current catalog statistics
type Stats struct {
	Generation     uint64
	TotalAssets    int
	Picked         int
	Rejected       int
	ThumbnailCount int
	PreviewCount   int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	refreshers    []func()
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. Each refresher runs on every
// collection, before stats are read.
func NewCollector(provider StatsProvider, interval time.Duration, refreshers ...func()) *Collector {
	return &Collector{
		statsProvider: provider,
		refreshers:    refreshers,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectMemory()
	for _, refresh := range c.refreshers {
		refresh()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.Stats()

	CatalogGeneration.Set(float64(stats.Generation))
	AssetsTotal.Set(float64(stats.TotalAssets))
	AssetsFlagged.WithLabelValues("pick").Set(float64(stats.Picked))
	AssetsFlagged.WithLabelValues("reject").Set(float64(stats.Rejected))
	CacheEntries.WithLabelValues("thumbnail").Set(float64(stats.ThumbnailCount))
	CacheEntries.WithLabelValues("preview").Set(float64(stats.PreviewCount))

	logging.Debug("Metrics collected: %d assets, generation %d", stats.TotalAssets, stats.Generation)
}

func (c *Collector) collectMemory() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	GoMemAllocBytes.Set(float64(m.Alloc))

	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
		GoMemLimit.Set(float64(limit))
	}
}
