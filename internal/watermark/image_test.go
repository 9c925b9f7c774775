package watermark

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderImageScale(t *testing.T) {
	src := solid(100, 60, color.NRGBA{R: 255, A: 255})

	layer, ok := RenderImage(ImageWatermark{ScalePercent: 50, Opacity: 100}, src, 0)
	if !ok {
		t.Fatalf("expected layer")
	}
	if layer.Width != 50 || layer.Height != 30 {
		t.Fatalf("got %dx%d, want 50x30", layer.Width, layer.Height)
	}

	// Out-of-range scale is clamped to 10..200.
	layer, _ = RenderImage(ImageWatermark{ScalePercent: 500, Opacity: 100}, src, 0)
	if layer.Width != 200 || layer.Height != 120 {
		t.Fatalf("clamped scale: got %dx%d, want 200x120", layer.Width, layer.Height)
	}
}

func TestRenderImageOpacityMultipliesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			a := uint8(255)
			if x < 5 {
				a = 0
			}
			src.SetNRGBA(x, y, color.NRGBA{G: 255, A: a})
		}
	}

	layer, ok := RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 50}, src, 0)
	if !ok {
		t.Fatalf("expected layer")
	}
	if got := layer.Image.NRGBAAt(2, 2).A; got != 0 {
		t.Fatalf("transparent region gained alpha %d", got)
	}
	if got := layer.Image.NRGBAAt(7, 7).A; got != alphaFor(50) {
		t.Fatalf("opaque region alpha %d, want %d", got, alphaFor(50))
	}
	if src.NRGBAAt(7, 7).A != 255 {
		t.Fatalf("source image was modified")
	}
}

func TestRenderImageOpaqueSourceGetsAlpha(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	layer, ok := RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 100}, src, 0)
	if !ok {
		t.Fatalf("expected layer")
	}
	if got := layer.Image.NRGBAAt(3, 3).A; got != 255 {
		t.Fatalf("opaque source alpha %d, want 255", got)
	}
}

func TestRenderImageRotation(t *testing.T) {
	src := solid(40, 20, color.NRGBA{B: 255, A: 255})
	layer, ok := RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 100}, src, 90)
	if !ok {
		t.Fatalf("expected layer")
	}
	if layer.Width != 20 || layer.Height != 40 {
		t.Fatalf("got %dx%d, want 20x40", layer.Width, layer.Height)
	}

	layer, _ = RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 100}, src, 45)
	if layer.Width <= 40 || layer.Height <= 20 {
		t.Fatalf("45 degree rotation should expand bounds, got %dx%d", layer.Width, layer.Height)
	}
	if layer.Image.NRGBAAt(0, 0).A != 0 {
		t.Fatalf("expanded corner should be transparent")
	}
}

func TestRenderImageMissing(t *testing.T) {
	if _, ok := RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 100}, nil, 0); ok {
		t.Fatalf("nil source should not produce a layer")
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if _, ok := RenderImage(ImageWatermark{ScalePercent: 100, Opacity: 100}, empty, 0); ok {
		t.Fatalf("empty source should not produce a layer")
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, solid(6, 4, color.NRGBA{R: 9, A: 200})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = f.Close()

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
		t.Fatalf("got %v", b)
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
