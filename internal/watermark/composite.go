package watermark

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Compositor applies RenderRequests to images. It is safe for concurrent use.
type Compositor struct {
	fonts *FontLoader
	log   logrus.FieldLogger
}

func NewCompositor(fonts *FontLoader, log logrus.FieldLogger) *Compositor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fonts == nil {
		fonts = NewFontLoader(nil, log)
	}
	return &Compositor{fonts: fonts, log: log}
}

// Composite resizes base, blends the requested watermark over it and, for
// JPEG output, flattens the result onto white. base is never modified.
// A missing watermark image or empty text leaves the resized base unchanged.
func (c *Compositor) Composite(base image.Image, req RenderRequest) (out *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrComposition, r)
		}
	}()

	if base == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := base.Bounds()
	w, h, err := ResolveResize(req.Resize, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	var canvas *image.NRGBA
	if w == b.Dx() && h == b.Dy() {
		canvas = imaging.Clone(base)
	} else {
		canvas = imaging.Resize(base, w, h, imaging.Lanczos)
	}

	layer, ok, err := c.renderLayer(req)
	if err != nil {
		return nil, err
	}
	if ok {
		x, y, err := placeLayer(req, layer, w, h)
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"x": x, "y": y, "layer_w": layer.Width, "layer_h": layer.Height,
		}).Debug("Blending watermark")
		blendOver(canvas, layer.Image, x, y)
	}

	if req.Format == FormatJPEG {
		flatten(canvas)
	}
	return canvas, nil
}

func (c *Compositor) renderLayer(req RenderRequest) (Layer, bool, error) {
	switch spec := req.Watermark.(type) {
	case nil, NoWatermark:
		return Layer{}, false, nil
	case TextWatermark:
		layer, ok := RenderText(c.fonts, spec, req.Rotation)
		if !ok {
			c.log.Debug("Empty text watermark, skipping")
		}
		return layer, ok, nil
	case ImageWatermark:
		src := spec.Source
		if src == nil {
			if spec.SourcePath == "" {
				c.log.Debug("No watermark image set, skipping")
				return Layer{}, false, nil
			}
			loaded, err := LoadImage(spec.SourcePath)
			if err != nil {
				c.log.WithError(err).WithField("path", spec.SourcePath).Warn("Watermark image unavailable, skipping")
				return Layer{}, false, nil
			}
			src = loaded
		}
		layer, ok := RenderImage(spec, src, req.Rotation)
		return layer, ok, nil
	default:
		return Layer{}, false, fmt.Errorf("%w: unknown watermark %T", ErrComposition, spec)
	}
}

func placeLayer(req RenderRequest, layer Layer, canvasW, canvasH int) (int, int, error) {
	switch p := req.Placement.(type) {
	case nil:
		x, y := ResolveAnchor(BottomRight, canvasW, canvasH, layer.Width, layer.Height, DefaultMargin)
		return x, y, nil
	case AtAnchor:
		x, y := ResolveAnchor(p.Anchor, canvasW, canvasH, layer.Width, layer.Height, DefaultMargin)
		return x, y, nil
	case AtPoint:
		// Only image watermarks are held inside the guard band; text may sit
		// partly or fully off the canvas.
		if _, isImage := req.Watermark.(ImageWatermark); isImage {
			return clampGuard(p.X, canvasW), clampGuard(p.Y, canvasH), nil
		}
		return p.X, p.Y, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown placement %T", ErrComposition, p)
	}
}

// blendOver composites src onto dst with its top-left at (x, y) using
// non-premultiplied "over". Fully transparent source pixels leave dst as is.
func blendOver(dst, src *image.NRGBA, x, y int) {
	sb := src.Bounds()
	target := image.Rect(x, y, x+sb.Dx(), y+sb.Dy()).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}

	for py := target.Min.Y; py < target.Max.Y; py++ {
		for px := target.Min.X; px < target.Max.X; px++ {
			si := src.PixOffset(sb.Min.X+px-x, sb.Min.Y+py-y)
			s := src.Pix[si : si+4 : si+4]
			sa := uint32(s[3])
			if sa == 0 {
				continue
			}
			di := dst.PixOffset(px, py)
			d := dst.Pix[di : di+4 : di+4]
			if sa == 255 {
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 255
				continue
			}

			da := uint32(d[3])
			inv := 255 - sa
			outA := sa*255 + da*inv
			for ch := 0; ch < 3; ch++ {
				d[ch] = uint8((uint32(s[ch])*sa*255 + uint32(d[ch])*da*inv + outA/2) / outA)
			}
			d[3] = uint8((outA + 127) / 255)
		}
	}
}

// flatten blends every translucent pixel toward white and makes it opaque.
func flatten(img *image.NRGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := uint32(img.Pix[i+3])
		if a == 255 {
			continue
		}
		inv := 255 - a
		for ch := 0; ch < 3; ch++ {
			img.Pix[i+ch] = uint8((uint32(img.Pix[i+ch])*a + 255*inv + 127) / 255)
		}
		img.Pix[i+3] = 255
	}
}
