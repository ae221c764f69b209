// Package folder provides access to the user-selected photo folder.
//
// A [Local] handle wraps a directory and carries a session ID. All reads go
// through the NFS-aware retry helpers in the filesystem package. A handle is
// valid until it is revoked or its root directory disappears; after that
// every operation fails with asset.ErrSessionInvalidated and the catalog must
// be reset.
package folder
