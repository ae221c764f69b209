// Package media decodes photos and encodes thumbnails and previews.
//
// A [Codec] is a pair of stateless functions: Decode turns source bytes into
// an image.Image and Encode turns an image into bytes. [ImagingCodec] covers
// the common raster formats in pure Go. [VipsCodec] uses libvips for camera
// formats and shrinks during decode; it requires InitVips at startup.
//
// The [Renderer] combines a codec with the configured sizes and qualities and
// is what the scheduler's jobs call.
package media
