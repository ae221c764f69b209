// Package asset defines the photo catalog's shared model: asset identity,
// folder-session generations, derived image variants, request priorities,
// scan results and the error taxonomy used across the catalog.
package asset
