// Package previewcache keeps encoded thumbnails and previews in memory.
//
// Two independent LRU caches, one per variant, are each bounded by entry
// count rather than bytes. A Get hit refreshes the entry's recency; a Put
// beyond capacity evicts the least recently used entry first. Assets removed
// from the catalog are dropped with EvictForAsset and a folder change empties
// everything with Clear.
//
// The cache does not schedule work: on a miss the caller submits a request to
// the scheduler.
package previewcache
