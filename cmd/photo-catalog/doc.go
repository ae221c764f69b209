// Package main provides the entry point for the photo catalog server.
//
// The server keeps a catalog of the photos in one user-selected folder,
// reconciles it with the disk on demand, and renders thumbnails and previews
// asynchronously into bounded in-memory caches. Clients follow progress over
// a websocket event stream.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and sizes the caches
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Codec Initialization: Starts libvips unless CODEC=imaging
//  4. Database Initialization: Opens the SQLite catalog store
//  5. Catalog Restore: Loads the last folder from the database and rescans
//     it in the background, or selects PHOTO_DIR
//  6. HTTP Server Setup: Routes, logging and metrics middleware
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP API
//
//   - GET  /api/assets: Catalog of the selected folder
//   - POST /api/folder: Select a folder ({"path": "..."})
//   - POST /api/rescan: Reconcile the folder with the disk
//   - POST /api/reload: Reload the catalog from the database
//   - GET  /api/assets/{id}/thumbnail, /api/assets/{id}/preview: Derived JPEGs
//   - PUT  /api/assets/{id}/flags: Pick or reject ({"pick": true})
//   - GET  /api/events: Websocket event stream
//   - GET  /healthz, /livez, /version, /metrics
//
// See package startup for the environment variables.
package main
