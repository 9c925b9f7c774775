package processor

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"watermarker/internal/watermark"
)

func encode(w io.Writer, img image.Image, format watermark.Format, quality int) error {
	switch format {
	case watermark.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(min(max(quality, 1), 100)))
	case watermark.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("unknown output format %d", format)
	}
}
