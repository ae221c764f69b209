package mediatypes

import (
	"path/filepath"
	"strings"
)

// PhotoKind groups photo extensions by how they can be decoded.
type PhotoKind string

const (
	// KindRaster is a format the pure-Go decoders handle (JPEG, PNG, GIF, WebP, BMP, TIFF).
	KindRaster PhotoKind = "raster"
	// KindCamera is a camera or container format that needs libvips.
	KindCamera PhotoKind = "camera"
	// KindOther is not a photo.
	KindOther PhotoKind = "other"
)

// PhotoExtensions maps lowercase extensions to their photo kind.
var PhotoExtensions = map[string]PhotoKind{
	".jpg":  KindRaster,
	".jpeg": KindRaster,
	".png":  KindRaster,
	".gif":  KindRaster,
	".bmp":  KindRaster,
	".webp": KindRaster,
	".tiff": KindRaster,
	".tif":  KindRaster,
	".heic": KindCamera,
	".heif": KindCamera,
	".avif": KindCamera,
	".dng":  KindCamera,
	".cr2":  KindCamera,
	".nef":  KindCamera,
	".arw":  KindCamera,
}

// MimeTypes maps derived-image formats and source extensions to MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// GetPhotoKind returns the kind for a file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func GetPhotoKind(ext string) PhotoKind {
	if kind, ok := PhotoExtensions[ext]; ok {
		return kind
	}
	return KindOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsPhoto reports whether the path names a file the catalog tracks.
func IsPhoto(path string) bool {
	return GetPhotoKind(strings.ToLower(filepath.Ext(path))) != KindOther
}
