// Package middleware provides HTTP middleware for the photo catalog.
//
// It includes:
//   - Request access logging through the leveled logger
//   - Prometheus request metrics labeled by route template
//
// Both wrap the response writer in a way that still allows websocket upgrades.
package middleware
