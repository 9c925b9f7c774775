package watermark

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoadImage decodes any supported image from disk.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImage, path, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrInvalidImage, path)
	}
	return img, nil
}

// RenderImage scales src by the watermark's percentage, fades its alpha by
// the opacity and rotates it. Existing transparency in src is preserved.
func RenderImage(spec ImageWatermark, src image.Image, rotation float64) (Layer, bool) {
	if src == nil {
		return Layer{}, false
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Layer{}, false
	}

	scale := min(max(spec.ScalePercent, 10), 200)
	w := scaleDim(b.Dx(), scale, 100)
	h := scaleDim(b.Dy(), scale, 100)

	var layer *image.NRGBA
	if w == b.Dx() && h == b.Dy() {
		layer = imaging.Clone(src)
	} else {
		layer = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	fade(layer, alphaFor(spec.Opacity))

	rotation = NormalizeRotation(rotation)
	if rotation != 0 {
		layer = imaging.Rotate(layer, rotation, color.Transparent)
	}

	lb := layer.Bounds()
	return Layer{Image: layer, Width: lb.Dx(), Height: lb.Dy()}, true
}

// fade multiplies every alpha value in img by factor/255 in place.
func fade(img *image.NRGBA, factor uint8) {
	if factor == 255 {
		return
	}
	f := uint32(factor)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8((uint32(img.Pix[i])*f + 127) / 255)
	}
}
