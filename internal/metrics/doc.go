// Package metrics provides Prometheus instrumentation for the photo catalog.
//
// All metrics are prefixed with "photo_catalog_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight requests
//   - Database: query counts and durations, transaction outcomes, rows affected
//   - Scan: scans by kind and status, classified changes, per-file failures
//   - Scheduler: submissions (queued or coalesced), completions by status
//     (success, failure, stale, timeout, canceled), pending and in-flight gauges
//   - Preview cache: hits, misses, capacity evictions and entries per variant
//   - Codec: decode/encode counts and durations per codec
//   - Filesystem: operation durations, errors and NFS retries
//
// # Usage
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// The [Collector] periodically copies catalog statistics from a
// [StatsProvider] into gauges:
//
//	collector := metrics.NewCollector(service, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Cache hit rate:
//
//	rate(photo_catalog_cache_hits_total[5m]) /
//	(rate(photo_catalog_cache_hits_total[5m]) + rate(photo_catalog_cache_misses_total[5m]))
//
// Share of results dropped after a folder change:
//
//	rate(photo_catalog_scheduler_completed_total{status="stale"}[5m])
package metrics
