// Package memory keeps the photo catalog inside its container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO,
// [CacheCapacities] sizes the thumbnail and preview caches from that limit,
// and [Monitor] pauses decode workers while the heap is above the critical
// water mark:
//
//	result := memory.ConfigureFromEnv()
//	thumbs, previews := memory.CacheCapacities(result.GoMemLimit, 2000, 64)
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
package memory
