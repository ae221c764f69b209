// Package handlers provides the HTTP API of the photo catalog.
//
// It includes handlers for:
//   - Selecting, rescanning and reloading the photo folder
//   - Listing assets and recording pick/reject flags
//   - Thumbnails and previews, rendered on demand
//   - The websocket event stream
//   - Health checks, version and metrics
package handlers
