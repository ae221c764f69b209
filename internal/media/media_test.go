package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"photo-catalog/internal/asset"
)

func createTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	dims, err := GetImageDimensions(data)
	if err != nil {
		t.Fatalf("GetImageDimensions: %v", err)
	}
	return dims.Width, dims.Height
}

func TestRenderVariants(t *testing.T) {
	r := NewRenderer(Options{ThumbnailSize: 200, PreviewSize: 800, Codec: CodecImaging})
	src := createTestJPEG(t, 1200, 900)

	tests := []struct {
		variant       asset.Variant
		width, height int
	}{
		{asset.VariantThumbnail, 200, 150},
		{asset.VariantPreview, 800, 600},
	}
	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			out, err := r.Render("a", "a.jpg", src, tt.variant)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			w, h := decodeSize(t, out)
			if w != tt.width || h != tt.height {
				t.Errorf("Render(%s) = %dx%d, want %dx%d", tt.variant, w, h, tt.width, tt.height)
			}
		})
	}
}

func TestRenderDoesNotEnlarge(t *testing.T) {
	r := NewRenderer(Options{Codec: CodecImaging})
	out, err := r.Render("a", "small.jpg", createTestJPEG(t, 120, 80), asset.VariantPreview)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeSize(t, out); w != 120 || h != 80 {
		t.Errorf("Expected 120x80 to be kept, got %dx%d", w, h)
	}
}

func TestRenderCorruptInputIsDecodeFailure(t *testing.T) {
	r := NewRenderer(Options{Codec: CodecImaging})

	_, err := r.Render("bad", "bad.jpg", []byte("not an image"), asset.VariantThumbnail)

	var df *asset.DecodeFailure
	if !errors.As(err, &df) {
		t.Fatalf("Expected *asset.DecodeFailure, got %T: %v", err, err)
	}
	if df.ID != "bad" {
		t.Errorf("DecodeFailure.ID = %s, want bad", df.ID)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if _, err := (ImagingCodec{}).Encode(img, Format("gif"), 80); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if _, err := (ImagingCodec{}).Encode(img, FormatPNG, 0); err != nil {
		t.Errorf("PNG encode failed: %v", err)
	}
}

func TestConstrainedSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxPixels     int
		wantW, wantH  int
	}{
		{name: "within limits", width: 1000, height: 800, maxPixels: MaxImagePixels, wantW: 1000, wantH: 800},
		{name: "wide image", width: 8000, height: 2000, maxPixels: MaxImagePixels, wantW: 4096, wantH: 1024},
		{name: "tall image", width: 2000, height: 8000, maxPixels: MaxImagePixels, wantW: 1024, wantH: 4096},
		{name: "pixel budget", width: 4096, height: 4096, maxPixels: 4_000_000, wantW: 976, wantH: 976},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := constrainedSize(tt.width, tt.height, MaxImageDimension, tt.maxPixels)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("constrainedSize(%d, %d) = %dx%d, want %dx%d", tt.width, tt.height, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNewRendererDefaults(t *testing.T) {
	r := NewRenderer(Options{})
	if r.Size(asset.VariantThumbnail) != DefaultThumbnailSize || r.Size(asset.VariantPreview) != DefaultPreviewSize {
		t.Errorf("Unexpected default sizes: %d, %d", r.Size(asset.VariantThumbnail), r.Size(asset.VariantPreview))
	}
	if r.codecFor("a.jpg").Name() != CodecImaging {
		t.Errorf("Expected imaging for raster formats, got %s", r.codecFor("a.jpg").Name())
	}
}

func TestVipsCodecIfAvailable(t *testing.T) {
	if err := InitVips(); err != nil || !IsVipsAvailable() {
		t.Skipf("libvips not available: %v", err)
	}

	img, err := (VipsCodec{}).Decode(createTestJPEG(t, 640, 480))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("Expected 640x480, got %dx%d", b.Dx(), b.Dy())
	}

	r := NewRenderer(Options{Codec: CodecVips, ThumbnailSize: 100})
	out, err := r.Render("a", "a.jpg", createTestJPEG(t, 400, 200), asset.VariantThumbnail)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeSize(t, out); w != 100 || h != 50 {
		t.Errorf("Expected 100x50 thumbnail, got %dx%d", w, h)
	}
}
