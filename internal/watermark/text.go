package watermark

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	shadowOffset = 2
	// rotationPadding surrounds text before rotating so corners are not clipped.
	rotationPadding = 10
)

// Layer is a transparent buffer holding only watermark pixels. Width and
// Height are the size used for placement; for unrotated text with a shadow
// the image is larger and the shadow overhangs the placement box.
type Layer struct {
	Image  *image.NRGBA
	Width  int
	Height int
}

// RenderText rasterises spec into a layer. It reports false when there is
// nothing to draw, e.g. empty content.
func RenderText(fonts *FontLoader, spec TextWatermark, rotation float64) (Layer, bool) {
	if spec.Content == "" {
		return Layer{}, false
	}
	if fonts == nil {
		fonts = NewFontLoader(nil, nil)
	}

	face := fonts.Face(spec.FontFamily, spec.FontSize, spec.Bold, spec.Italic)
	defer face.Close()

	bounds, _ := font.BoundString(face, spec.Content)
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	textW := bounds.Max.X.Ceil() - minX
	textH := bounds.Max.Y.Ceil() - minY
	if textW <= 0 || textH <= 0 {
		return Layer{}, false
	}

	alpha := alphaFor(spec.Opacity)
	fill := color.NRGBA{R: spec.Color.R, G: spec.Color.G, B: spec.Color.B, A: alpha}

	rotation = NormalizeRotation(rotation)
	pad := 0
	if rotation != 0 {
		pad = rotationPadding
	}
	w, h := textW+2*pad, textH+2*pad
	if spec.Shadow && rotation == 0 {
		w += shadowOffset
		h += shadowOffset
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	origin := fixed.P(pad-minX, pad-minY)
	drawer := &font.Drawer{Dst: canvas, Face: face}

	if spec.Shadow {
		drawer.Src = image.NewUniform(color.NRGBA{A: uint8(int(alpha) * 3 / 10)})
		drawer.Dot = origin.Add(fixed.P(shadowOffset, shadowOffset))
		drawer.DrawString(spec.Content)
	}
	drawer.Src = image.NewUniform(fill)
	drawer.Dot = origin
	drawer.DrawString(spec.Content)

	layer := imaging.Clone(canvas)
	if rotation == 0 {
		return Layer{Image: layer, Width: textW, Height: textH}, true
	}

	rotated := imaging.Rotate(layer, rotation, color.Transparent)
	rb := rotated.Bounds()
	return Layer{Image: rotated, Width: rb.Dx(), Height: rb.Dy()}, true
}
