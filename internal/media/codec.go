package media

import (
	"bytes"
	"fmt"
	"image"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP format support

	"photo-catalog/internal/metrics"
)

const (
	// MaxImageDimension is the maximum width or height we'll keep after decode.
	// Larger images are downscaled before resizing to a variant.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll keep.
	// A 50MP image would be ~50,000,000 pixels, which uses ~200MB in RGBA
	MaxImagePixels = 20_000_000
)

// Format is an output encoding for derived images.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Codec turns source bytes into pixels and pixels into derived-image bytes.
// Implementations are stateless and safe for concurrent use.
type Codec interface {
	Name() string
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, format Format, quality int) ([]byte, error)
}

// ImagingCodec is the pure-Go codec. It handles JPEG, PNG, GIF, BMP, TIFF
// and WebP, and applies EXIF orientation.
type ImagingCodec struct{}

var _ Codec = ImagingCodec{}

func (ImagingCodec) Name() string { return "imaging" }

// Decode decodes data, downscaling images that exceed the size limits.
func (c ImagingCodec) Decode(data []byte) (img image.Image, err error) {
	defer observe(c.Name(), "decode", time.Now(), &err)

	img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return constrain(img, MaxImageDimension, MaxImagePixels), nil
}

// Encode encodes img in the requested format. quality applies to JPEG only.
func (c ImagingCodec) Encode(img image.Image, format Format, quality int) (data []byte, err error) {
	defer observe(c.Name(), "encode", time.Now(), &err)
	return encode(img, format, quality)
}

func encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(data []byte) (*ImageDimensions, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// constrainedSize returns the largest size within maxDimension and maxPixels
// that keeps the aspect ratio of width x height.
func constrainedSize(width, height, maxDimension, maxPixels int) (int, int) {
	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := float64(maxPixels) / float64(targetPixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	return max(targetWidth, 1), max(targetHeight, 1)
}

func constrain(img image.Image, maxDimension, maxPixels int) image.Image {
	b := img.Bounds()
	w, h := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	log.Debug("constraining %dx%d image to %dx%d", b.Dx(), b.Dy(), w, h)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

func observe(codec, op string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	metrics.CodecOperationsTotal.WithLabelValues(codec, op, status).Inc()
	metrics.CodecOperationDuration.WithLabelValues(codec, op).Observe(time.Since(start).Seconds())
}
