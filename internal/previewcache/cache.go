package previewcache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/metrics"
)

// Default capacities, in entries.
const (
	DefaultThumbnailCapacity = 2000
	DefaultPreviewCapacity   = 64
)

// Cache holds encoded derived images in one LRU per variant. Each variant is
// bounded by item count, independent of the other.
type Cache struct {
	variants map[asset.Variant]*variantCache
}

type variantCache struct {
	name     string
	capacity int
	lru      *lru.Cache[asset.ID, []byte]
}

// New creates a cache holding at most thumbCap thumbnails and previewCap previews.
func New(thumbCap, previewCap int) (*Cache, error) {
	c := &Cache{variants: make(map[asset.Variant]*variantCache, 2)}
	for v, capacity := range map[asset.Variant]int{
		asset.VariantThumbnail: thumbCap,
		asset.VariantPreview:   previewCap,
	} {
		l, err := lru.New[asset.ID, []byte](capacity)
		if err != nil {
			return nil, fmt.Errorf("%s cache capacity %d: %w", v, capacity, err)
		}
		c.variants[v] = &variantCache{name: string(v), capacity: capacity, lru: l}
	}
	return c, nil
}

func (c *Cache) variant(v asset.Variant) *variantCache {
	vc, ok := c.variants[v]
	if !ok {
		panic(fmt.Sprintf("previewcache: unknown variant %q", v))
	}
	return vc
}

// Get returns the cached bytes and marks the entry most recently used.
func (c *Cache) Get(key asset.Key) ([]byte, bool) {
	vc := c.variant(key.Variant)
	data, ok := vc.lru.Get(key.ID)
	if ok {
		metrics.CacheHits.WithLabelValues(vc.name).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(vc.name).Inc()
	}
	return data, ok
}

// Has reports whether the entry is cached without touching its recency.
func (c *Cache) Has(key asset.Key) bool {
	return c.variant(key.Variant).lru.Contains(key.ID)
}

// Put stores data, evicting the least recently used entry when the variant is full.
// It reports whether an entry was evicted.
func (c *Cache) Put(key asset.Key, data []byte) bool {
	vc := c.variant(key.Variant)
	evicted := vc.lru.Add(key.ID, data)
	if evicted {
		metrics.CacheEvictions.WithLabelValues(vc.name).Inc()
	}
	metrics.CacheEntries.WithLabelValues(vc.name).Set(float64(vc.lru.Len()))
	return evicted
}

// EvictForAsset drops every variant cached for id.
func (c *Cache) EvictForAsset(id asset.ID) {
	for _, vc := range c.variants {
		if vc.lru.Remove(id) {
			metrics.CacheEntries.WithLabelValues(vc.name).Set(float64(vc.lru.Len()))
		}
	}
}

// Clear empties both caches.
func (c *Cache) Clear() {
	for _, vc := range c.variants {
		vc.lru.Purge()
		metrics.CacheEntries.WithLabelValues(vc.name).Set(0)
	}
}

// Len returns the number of entries cached for a variant.
func (c *Cache) Len(v asset.Variant) int {
	return c.variant(v).lru.Len()
}

// Capacity returns the configured maximum for a variant.
func (c *Cache) Capacity(v asset.Variant) int {
	return c.variant(v).capacity
}

// Keys returns the cached IDs of a variant from least to most recently used.
func (c *Cache) Keys(v asset.Variant) []asset.ID {
	return c.variant(v).lru.Keys()
}
