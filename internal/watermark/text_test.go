package watermark

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/gofont/gobold"
)

func testFonts() *FontLoader {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewFontLoader(nil, log)
}

func maxAlpha(l Layer) uint8 {
	var m uint8
	for i := 3; i < len(l.Image.Pix); i += 4 {
		if l.Image.Pix[i] > m {
			m = l.Image.Pix[i]
		}
	}
	return m
}

func textSpec(content string, opacity int) TextWatermark {
	return TextWatermark{
		Content:  content,
		FontSize: 32,
		Color:    color.RGBA{R: 200, G: 10, B: 10, A: 255},
		Opacity:  opacity,
	}
}

func TestRenderTextEmpty(t *testing.T) {
	if _, ok := RenderText(testFonts(), textSpec("", 100), 0); ok {
		t.Fatalf("empty text should not produce a layer")
	}
}

func TestRenderTextOpacity(t *testing.T) {
	fonts := testFonts()

	full, ok := RenderText(fonts, textSpec("Hello", 100), 0)
	if !ok {
		t.Fatalf("expected layer")
	}
	if got := maxAlpha(full); got != 255 {
		t.Fatalf("opacity 100: max alpha %d, want 255", got)
	}

	none, ok := RenderText(fonts, textSpec("Hello", 0), 0)
	if !ok {
		t.Fatalf("expected layer")
	}
	if got := maxAlpha(none); got != 0 {
		t.Fatalf("opacity 0: max alpha %d, want 0", got)
	}

	prev := uint8(0)
	for _, opacity := range []int{10, 25, 50, 75, 100} {
		layer, _ := RenderText(fonts, textSpec("Hello", opacity), 0)
		got := maxAlpha(layer)
		if got <= prev {
			t.Fatalf("opacity %d: max alpha %d not above %d", opacity, got, prev)
		}
		if got > alphaFor(opacity) {
			t.Fatalf("opacity %d: max alpha %d exceeds %d", opacity, got, alphaFor(opacity))
		}
		prev = got
	}
}

func TestRenderTextShadow(t *testing.T) {
	fonts := testFonts()

	plain, _ := RenderText(fonts, textSpec("Shadow", 100), 0)
	spec := textSpec("Shadow", 100)
	spec.Shadow = true
	shadowed, ok := RenderText(fonts, spec, 0)
	if !ok {
		t.Fatalf("expected layer")
	}

	if shadowed.Width != plain.Width || shadowed.Height != plain.Height {
		t.Fatalf("shadow changed placement size: %dx%d vs %dx%d", shadowed.Width, shadowed.Height, plain.Width, plain.Height)
	}
	b := shadowed.Image.Bounds()
	if b.Dx() != plain.Width+shadowOffset || b.Dy() != plain.Height+shadowOffset {
		t.Fatalf("shadow layer is %dx%d, want %dx%d", b.Dx(), b.Dy(), plain.Width+shadowOffset, plain.Height+shadowOffset)
	}

	// The bottom-right corner is only reachable by the offset shadow, which
	// is black.
	foundShadow := false
	for y := b.Max.Y - shadowOffset; y < b.Max.Y; y++ {
		for x := 0; x < b.Dx(); x++ {
			c := shadowed.Image.NRGBAAt(x, y)
			if c.A > 0 {
				foundShadow = true
				if c.R != 0 || c.G != 0 || c.B != 0 {
					t.Fatalf("shadow pixel at (%d,%d) is not black: %v", x, y, c)
				}
			}
		}
	}
	if !foundShadow {
		t.Fatalf("no shadow pixels below the text box")
	}
}

func TestRenderTextRotation(t *testing.T) {
	fonts := testFonts()

	flat, _ := RenderText(fonts, textSpec("Rotate", 100), 0)

	quarter, ok := RenderText(fonts, textSpec("Rotate", 100), 90)
	if !ok {
		t.Fatalf("expected layer")
	}
	if quarter.Width != flat.Height+2*rotationPadding || quarter.Height != flat.Width+2*rotationPadding {
		t.Fatalf("90 degree layer %dx%d, want %dx%d", quarter.Width, quarter.Height,
			flat.Height+2*rotationPadding, flat.Width+2*rotationPadding)
	}

	tilted, ok := RenderText(fonts, textSpec("Rotate", 100), 30)
	if !ok {
		t.Fatalf("expected layer")
	}
	if tilted.Height <= flat.Height+2*rotationPadding {
		t.Fatalf("30 degree layer should grow taller than the padded text, got %d", tilted.Height)
	}
	if maxAlpha(tilted) == 0 {
		t.Fatalf("rotated layer has no visible pixels")
	}

	full, _ := RenderText(fonts, textSpec("Rotate", 100), 360)
	if full.Width != flat.Width || full.Height != flat.Height {
		t.Fatalf("360 degrees should behave like 0")
	}
}

func TestFontLoaderFallsBack(t *testing.T) {
	fonts := testFonts()
	want, _ := RenderText(fonts, textSpec("Fallback", 100), 0)

	spec := textSpec("Fallback", 100)
	spec.FontFamily = "Definitely Not A Font"
	got, ok := RenderText(fonts, spec, 0)
	if !ok {
		t.Fatalf("fallback font should still render")
	}
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("fallback rendered %dx%d, want built-in %dx%d", got.Width, got.Height, want.Width, want.Height)
	}

	spec.FontFamily = filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(spec.FontFamily, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := RenderText(fonts, spec, 0); !ok {
		t.Fatalf("unparsable font should fall back")
	}
}

func TestFontLoaderResolvesFamily(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Acme-Bold.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	fonts := NewFontLoader([]string{dir}, log)

	if got := fonts.resolve("Acme", true, false); got != filepath.Join(dir, "Acme-Bold.ttf") {
		t.Fatalf("bold lookup resolved to %q", got)
	}
	if got := fonts.resolve("acme", false, false); got != "" {
		t.Fatalf("regular lookup should miss, got %q", got)
	}

	face := fonts.Face("Acme", 20, true, false)
	defer face.Close()
	if face.Metrics().Height <= 0 {
		t.Fatalf("expected a usable face")
	}
}
