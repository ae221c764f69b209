// Package scheduler runs thumbnail and preview work on a bounded worker pool.
//
// Requests are keyed by (asset, variant). A request submitted while another
// for the same key is pending or running returns the existing [Handle], so
// concurrent callers share one decode. Pending work is ordered foreground
// before background, first come first served within a class; re-submitting
// a pending background request as foreground promotes it. Running work is
// never reordered or preempted.
//
// Every request captures the catalog generation when it is submitted. When a
// job finishes, the collector takes the coordinating lock and compares that
// generation with the current one: a stale or revoked result is dropped and
// its handle resolves with asset.ErrStaleResult, without reaching the [Sink].
// Failures are delivered once and never retried.
//
// A job running longer than the soft timeout is reported as asset.ErrTimeout
// and its key is freed, so a hung decode cannot block later requests.
package scheduler
