// Package service ties the catalog, the preview cache, the request scheduler,
// the scanner and the renderer together behind one coordinating lock.
//
// Folder lifecycle:
//   - SelectFolder resets the catalog to a new generation, loads the persisted
//     records of the new folder and reconciles them with a scan
//   - RescanFolder reconciles the current folder and purges orphaned records
//   - LoadFromDatabase restores the persisted catalog, including the last
//     selected folder after a restart
//
// Scans run outside the coordinating lock. A scan whose generation was
// superseded while it ran applies nothing and returns asset.ErrStaleResult.
package service
