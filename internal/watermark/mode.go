package watermark

import "image"

type ColorMode int

const (
	ModeRGB ColorMode = iota
	ModeRGBA
	ModeGray
	ModeGrayAlpha
)

func (m ColorMode) String() string {
	switch m {
	case ModeRGBA:
		return "RGBA"
	case ModeGray:
		return "L"
	case ModeGrayAlpha:
		return "LA"
	default:
		return "RGB"
	}
}

// HasAlpha reports whether the mode carries an alpha channel.
func (m ColorMode) HasAlpha() bool {
	return m == ModeRGBA || m == ModeGrayAlpha
}

// ModeOf classifies img by pixel type and, for alpha-capable types, by
// whether any pixel is translucent.
func ModeOf(img image.Image) ColorMode {
	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr, *image.CMYK:
		return ModeRGB
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return ModeRGBA
			}
		}
		return ModeRGB
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ModeRGB
	}
	if isGray(img) {
		return ModeGrayAlpha
	}
	return ModeRGBA
}

func isGray(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				return false
			}
		}
	}
	return true
}
