package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	variants := []string{"thumbnail", "preview"}

	for _, v := range variants {
		CacheHits.WithLabelValues(v)
		CacheMisses.WithLabelValues(v)
		CacheEvictions.WithLabelValues(v)
		CacheEntries.WithLabelValues(v)
		SchedulerJobDuration.WithLabelValues(v)
		for _, outcome := range []string{"queued", "coalesced", "promoted"} {
			SchedulerSubmitted.WithLabelValues(v, outcome)
		}
		for _, status := range []string{"success", "failure", "stale", "timeout", "canceled"} {
			SchedulerCompleted.WithLabelValues(v, status)
		}
	}

	for _, kind := range []string{"select", "rescan"} {
		ScanDuration.WithLabelValues(kind)
		ScansTotal.WithLabelValues(kind, "success")
		ScansTotal.WithLabelValues(kind, "error")
	}

	for _, change := range []string{"added", "modified", "removed"} {
		ScanChanges.WithLabelValues(change)
	}

	for _, codec := range []string{"imaging", "vips"} {
		for _, op := range []string{"decode", "encode"} {
			CodecOperationDuration.WithLabelValues(codec, op)
			CodecOperationsTotal.WithLabelValues(codec, op, "success")
			CodecOperationsTotal.WithLabelValues(codec, op, "error")
		}
	}

	for _, op := range []string{"stat", "read", "readdir"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "upsert_assets", "delete_assets",
		"load_assets", "update_flags", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	AssetsFlagged.WithLabelValues("pick")
	AssetsFlagged.WithLabelValues("reject")
}
