// Package scanner classifies the files of a folder as added, modified or
// removed relative to the catalog.
//
// Change detection compares size and modification time. A modification time
// that is zero, before the epoch, or further in the future than the clock
// skew tolerance is treated as a change, as is a known file whose stat fails:
// reprocessing an unchanged file is cheaper than missing an edit.
//
// Size and modification time miss an edit that preserves both. With
// Config.VerifyContent set, the scanner also hashes content with xxhash and
// compares it against the stored fingerprint. This reads every file on every
// scan, so it is off by default.
//
// Stat and read calls run on an errgroup bounded by Config.Workers. A failure
// on one file is recorded in ScanResult.Failures and never stops the scan; a
// file that failed to stat still counts as present and is never reported as
// removed.
package scanner
