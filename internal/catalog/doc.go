// Package catalog holds the authoritative in-memory set of assets for the
// selected folder, together with the generation counter that fences off work
// belonging to a previous folder session.
package catalog
