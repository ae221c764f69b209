package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

var log = logging.Component("catalog")

// Store persists the assets of the current folder. Each call is one transaction.
type Store interface {
	UpsertAssets(ctx context.Context, entries []asset.Entry) error
	DeleteAssets(ctx context.Context, ids []asset.ID) error
	LoadAll(ctx context.Context) ([]asset.Asset, error)
	UpdateFlags(ctx context.Context, id asset.ID, flags asset.Flags) error
}

// Cache holds derived images keyed by asset and variant.
type Cache interface {
	Has(key asset.Key) bool
	EvictForAsset(id asset.ID)
	Clear()
}

// Requests is the pending and in-flight derived-image work.
type Requests interface {
	CancelAll()
	Forget(id asset.ID)
}

// Catalog is the authoritative in-memory asset map and generation counter.
//
// Catalog is not safe for concurrent use: the owning service serializes every
// call with its coordinating lock. Current may be called from any goroutine.
type Catalog struct {
	generation atomic.Uint64

	assets   map[asset.ID]*asset.Asset
	store    Store
	cache    Cache
	requests Requests
	sub      Subscriber
}

// New creates an empty catalog with no folder.
func New(cache Cache, sub Subscriber) *Catalog {
	if sub == nil {
		sub = Subscribers(nil)
	}
	return &Catalog{
		assets: make(map[asset.ID]*asset.Asset),
		cache:  cache,
		sub:    sub,
	}
}

// SetRequests attaches the scheduler. It is separate from New because the
// scheduler reads the catalog's generation.
func (c *Catalog) SetRequests(r Requests) {
	c.requests = r
}

// Current returns the current generation.
func (c *Catalog) Current() asset.Generation {
	return asset.Generation(c.generation.Load())
}

// HasFolder reports whether a folder store is attached.
func (c *Catalog) HasFolder() bool {
	return c.store != nil
}

// ResetForFolderChange starts a new folder session: it bumps the generation,
// cancels pending work and revokes running work, clears the asset map and
// empties both caches, then attaches store. store may be nil when the
// session ended without a replacement folder.
func (c *Catalog) ResetForFolderChange(store Store) asset.Generation {
	gen := asset.Generation(c.generation.Add(1))
	if c.requests != nil {
		c.requests.CancelAll()
	}

	removed := c.ids()
	clear(c.assets)
	if c.cache != nil {
		c.cache.Clear()
	}
	c.store = store

	metrics.CatalogGeneration.Set(float64(gen))
	metrics.AssetsTotal.Set(0)
	if len(removed) > 0 {
		c.sub.OnAssetsRemoved(removed)
	}
	log.Debug("reset to generation %d (%d assets dropped)", gen, len(removed))
	return gen
}

// Apply merges a scan result. Added and modified entries are persisted and
// then upserted; removed entries are deleted from the store and then dropped
// from memory along with their cached images and requests. If a store call
// fails, memory is left as it was for that step.
func (c *Catalog) Apply(ctx context.Context, result asset.ScanResult) error {
	if c.store == nil {
		return asset.ErrNoFolder
	}

	upserts := make([]asset.Entry, 0, len(result.Added)+len(result.Modified))
	upserts = append(upserts, result.Added...)
	upserts = append(upserts, result.Modified...)
	if err := c.store.UpsertAssets(ctx, upserts); err != nil {
		return fmt.Errorf("persist %d assets: %w", len(upserts), err)
	}

	added := make([]asset.Asset, 0, len(result.Added))
	for _, e := range result.Added {
		added = append(added, *c.upsert(e))
	}
	modified := make([]asset.Asset, 0, len(result.Modified))
	for _, e := range result.Modified {
		modified = append(modified, *c.upsert(e))
	}

	if len(result.Removed) > 0 {
		ids := make([]asset.ID, 0, len(result.Removed))
		for _, e := range result.Removed {
			ids = append(ids, e.ID)
		}
		if err := c.store.DeleteAssets(ctx, ids); err != nil {
			c.emit(added, modified, nil)
			return fmt.Errorf("delete %d assets: %w", len(ids), err)
		}
		removed := c.remove(ids)
		c.emit(added, modified, removed)
	} else {
		c.emit(added, modified, nil)
	}

	metrics.ScanChanges.WithLabelValues("added").Add(float64(len(result.Added)))
	metrics.ScanChanges.WithLabelValues("modified").Add(float64(len(result.Modified)))
	metrics.ScanChanges.WithLabelValues("removed").Add(float64(len(result.Removed)))
	metrics.AssetsTotal.Set(float64(len(c.assets)))
	return nil
}

// upsert inserts e or updates the existing asset in place. Derived images of
// an existing asset are stale and dropped.
func (c *Catalog) upsert(e asset.Entry) *asset.Asset {
	a, ok := c.assets[e.ID]
	if !ok {
		a = &asset.Asset{ID: e.ID}
		c.assets[e.ID] = a
	} else {
		c.purge(e.ID)
		a.ThumbnailReady = false
		a.PreviewReady = false
	}
	a.Path = e.Path
	a.Size = e.Size
	a.ModTime = e.ModTime
	a.Fingerprint = e.Fingerprint
	return a
}

// remove drops ids from memory and returns those that were present.
func (c *Catalog) remove(ids []asset.ID) []asset.ID {
	removed := make([]asset.ID, 0, len(ids))
	for _, id := range ids {
		c.purge(id)
		if _, ok := c.assets[id]; ok {
			delete(c.assets, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (c *Catalog) purge(id asset.ID) {
	if c.cache != nil {
		c.cache.EvictForAsset(id)
	}
	if c.requests != nil {
		c.requests.Forget(id)
	}
}

func (c *Catalog) emit(added, modified []asset.Asset, removed []asset.ID) {
	if len(added) > 0 {
		c.sub.OnAssetsAdded(added)
	}
	if len(modified) > 0 {
		c.sub.OnAssetsModified(modified)
	}
	if len(removed) > 0 {
		c.sub.OnAssetsRemoved(removed)
	}
}

// Load replaces the in-memory map with the persisted assets of the current
// folder. Cached images survive only for assets whose metadata is unchanged.
func (c *Catalog) Load(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, asset.ErrNoFolder
	}

	loaded, err := c.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load assets: %w", err)
	}

	previous := c.assets
	c.assets = make(map[asset.ID]*asset.Asset, len(loaded))

	added := make([]asset.Asset, 0, len(loaded))
	for i := range loaded {
		a := loaded[i]
		if old, ok := previous[a.ID]; ok && old.Stamp().Equal(a.Stamp()) {
			a.ThumbnailReady = c.cached(a.ID, asset.VariantThumbnail)
			a.PreviewReady = c.cached(a.ID, asset.VariantPreview)
		} else if ok {
			c.purge(a.ID)
		}
		c.assets[a.ID] = &a
		added = append(added, a)
	}

	var removed []asset.ID
	for id := range previous {
		if _, ok := c.assets[id]; !ok {
			c.purge(id)
			removed = append(removed, id)
		}
	}

	if len(removed) > 0 {
		c.sub.OnAssetsRemoved(removed)
	}
	if len(added) > 0 {
		c.sub.OnAssetsAdded(added)
	}
	metrics.AssetsTotal.Set(float64(len(c.assets)))
	return len(loaded), nil
}

func (c *Catalog) cached(id asset.ID, v asset.Variant) bool {
	return c.cache != nil && c.cache.Has(asset.Key{ID: id, Variant: v})
}

// PurgeOrphans deletes persisted records of the current folder that are not
// in present, and drops them from memory if they were loaded.
func (c *Catalog) PurgeOrphans(ctx context.Context, present map[asset.ID]struct{}) (int, error) {
	if c.store == nil {
		return 0, asset.ErrNoFolder
	}

	persisted, err := c.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load assets: %w", err)
	}

	var orphans []asset.ID
	for _, a := range persisted {
		if _, ok := present[a.ID]; !ok {
			orphans = append(orphans, a.ID)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	if err := c.store.DeleteAssets(ctx, orphans); err != nil {
		return 0, fmt.Errorf("delete %d orphans: %w", len(orphans), err)
	}
	if removed := c.remove(orphans); len(removed) > 0 {
		c.sub.OnAssetsRemoved(removed)
	}
	metrics.AssetsTotal.Set(float64(len(c.assets)))
	log.Info("purged %d orphaned records", len(orphans))
	return len(orphans), nil
}

// SetFlags persists and applies the culling flags of one asset.
func (c *Catalog) SetFlags(ctx context.Context, id asset.ID, flags asset.Flags) (asset.Asset, error) {
	if c.store == nil {
		return asset.Asset{}, asset.ErrNoFolder
	}
	a, ok := c.assets[id]
	if !ok {
		return asset.Asset{}, fmt.Errorf("%s: %w", id, asset.ErrNotFound)
	}
	if flags.Has(asset.FlagPick | asset.FlagReject) {
		return asset.Asset{}, fmt.Errorf("asset %s cannot be both picked and rejected", id)
	}
	if err := c.store.UpdateFlags(ctx, id, flags); err != nil {
		return asset.Asset{}, err
	}
	a.Flags = flags
	c.sub.OnAssetsModified([]asset.Asset{*a})
	return *a, nil
}

// MarkReady records that a variant was produced. It reports false if the
// asset is no longer in the catalog.
func (c *Catalog) MarkReady(id asset.ID, v asset.Variant) bool {
	a, ok := c.assets[id]
	if !ok {
		return false
	}
	a.SetReady(v, true)
	return true
}

// Get returns a copy of one asset.
func (c *Catalog) Get(id asset.ID) (asset.Asset, bool) {
	a, ok := c.assets[id]
	if !ok {
		return asset.Asset{}, false
	}
	return *a, true
}

// Len returns the number of assets.
func (c *Catalog) Len() int {
	return len(c.assets)
}

// Assets returns copies of every asset ordered by path.
func (c *Catalog) Assets() []asset.Asset {
	out := make([]asset.Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Snapshot returns the change-detection state keyed by path for the scanner.
func (c *Catalog) Snapshot() map[string]asset.Stamp {
	snap := make(map[string]asset.Stamp, len(c.assets))
	for _, a := range c.assets {
		snap[a.Path] = a.Stamp()
	}
	return snap
}

// Counts summarizes flags and readiness.
type Counts struct {
	Total     int
	Picked    int
	Rejected  int
	Thumbnail int
	Preview   int
}

// Counts returns current totals.
func (c *Catalog) Counts() Counts {
	counts := Counts{Total: len(c.assets)}
	for _, a := range c.assets {
		if a.Flags.Has(asset.FlagPick) {
			counts.Picked++
		}
		if a.Flags.Has(asset.FlagReject) {
			counts.Rejected++
		}
		if a.ThumbnailReady {
			counts.Thumbnail++
		}
		if a.PreviewReady {
			counts.Preview++
		}
	}
	return counts
}

func (c *Catalog) ids() []asset.ID {
	ids := make([]asset.ID, 0, len(c.assets))
	for id := range c.assets {
		ids = append(ids, id)
	}
	return ids
}
