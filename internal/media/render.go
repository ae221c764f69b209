package media

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
)

var log = logging.Component("media")

// Defaults for derived images.
const (
	DefaultThumbnailSize    = 200
	DefaultPreviewSize      = 1600
	DefaultThumbnailQuality = 80
	DefaultPreviewQuality   = 85
)

// Codec names accepted by Options.Codec.
const (
	CodecAuto    = "auto"
	CodecImaging = "imaging"
	CodecVips    = "vips"
)

// Options configures a Renderer.
type Options struct {
	ThumbnailSize    int
	PreviewSize      int
	ThumbnailQuality int
	PreviewQuality   int
	// Codec is "auto" (libvips for camera formats when available), "imaging"
	// or "vips" (libvips for everything when available).
	Codec string
}

// DefaultOptions returns the standard derived-image settings.
func DefaultOptions() Options {
	return Options{
		ThumbnailSize:    DefaultThumbnailSize,
		PreviewSize:      DefaultPreviewSize,
		ThumbnailQuality: DefaultThumbnailQuality,
		PreviewQuality:   DefaultPreviewQuality,
		Codec:            CodecAuto,
	}
}

// Renderer produces thumbnail and preview JPEGs from source bytes.
type Renderer struct {
	opts   Options
	raster Codec
	camera Codec
}

// NewRenderer picks codecs according to opts and libvips availability.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = def.ThumbnailSize
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = def.PreviewSize
	}
	if opts.ThumbnailQuality <= 0 || opts.ThumbnailQuality > 100 {
		opts.ThumbnailQuality = def.ThumbnailQuality
	}
	if opts.PreviewQuality <= 0 || opts.PreviewQuality > 100 {
		opts.PreviewQuality = def.PreviewQuality
	}

	r := &Renderer{opts: opts, raster: ImagingCodec{}, camera: ImagingCodec{}}
	vipsOK := IsVipsAvailable()
	switch strings.ToLower(opts.Codec) {
	case CodecVips:
		if vipsOK {
			r.raster, r.camera = VipsCodec{}, VipsCodec{}
		} else {
			log.Warn("CODEC=vips requested but libvips is not available, using imaging")
		}
	case CodecImaging:
	default:
		if vipsOK {
			r.camera = VipsCodec{}
		}
	}
	log.Debug("raster codec %s, camera codec %s", r.raster.Name(), r.camera.Name())
	return r
}

// Size returns the bounding box edge for a variant.
func (r *Renderer) Size(v asset.Variant) int {
	if v == asset.VariantPreview {
		return r.opts.PreviewSize
	}
	return r.opts.ThumbnailSize
}

func (r *Renderer) quality(v asset.Variant) int {
	if v == asset.VariantPreview {
		return r.opts.PreviewQuality
	}
	return r.opts.ThumbnailQuality
}

func (r *Renderer) codecFor(path string) Codec {
	if mediatypes.GetPhotoKind(strings.ToLower(filepath.Ext(path))) == mediatypes.KindCamera {
		return r.camera
	}
	return r.raster
}

// Render decodes data, fits it within the variant's bounding box without
// enlarging and encodes it as JPEG. Failures are *asset.DecodeFailure or
// *asset.EncodeFailure.
func (r *Renderer) Render(id asset.ID, path string, data []byte, v asset.Variant) ([]byte, error) {
	codec := r.codecFor(path)

	img, err := codec.Decode(data)
	if err != nil {
		return nil, &asset.DecodeFailure{ID: id, Err: err}
	}

	size := r.Size(v)
	fitted := imaging.Fit(img, size, size, imaging.Lanczos)

	out, err := codec.Encode(fitted, FormatJPEG, r.quality(v))
	if err != nil {
		return nil, &asset.EncodeFailure{ID: id, Variant: v, Err: err}
	}
	return out, nil
}
