/*
Package filesystem wraps the filesystem calls the photo catalog makes against
a selected folder (stat, read, readdir) with retry logic for NFS stale file
handle errors.

Photo folders frequently live on network shares. ESTALE (errno 116) is
transient there and is retried with exponential backoff (3 attempts, 50ms
doubling up to 500ms by default). Every other error is returned on the first
attempt, so a missing file still fails fast.

	info, err := filesystem.StatWithRetry(ctx, path, filesystem.DefaultRetryConfig())

Metrics are recorded through the [Observer] installed with [SetObserver];
without one, recording is skipped.
*/
package filesystem
