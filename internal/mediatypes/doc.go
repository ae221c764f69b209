// Package mediatypes classifies photo files by extension for the photo
// catalog.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
// # Photo Kinds
//
//	mediatypes.KindRaster // decodable by the pure-Go codec (jpg, png, gif, webp, bmp, tiff)
//	mediatypes.KindCamera // camera and container formats that need libvips (heic, dng, nef, ...)
//	mediatypes.KindOther  // not tracked by the catalog
//
// # Extension Detection
//
//	if mediatypes.IsPhoto(path) {
//	    // track it
//	}
//
// # MIME Types
//
//	mimeType := mediatypes.GetMimeType(".jpg") // "image/jpeg"
package mediatypes
