package watermark

import (
	"fmt"
	"math"
)

// DefaultMargin is the gap kept between an anchored watermark and the canvas
// edge.
const DefaultMargin = 20

// guardBand keeps explicitly placed image watermarks at least partly on the
// canvas.
const guardBand = 10

// ResolveAnchor returns the top-left corner of a wmW x wmH layer placed at
// anchor on a canvasW x canvasH canvas. Results are not clamped and may be
// negative when the layer is larger than the canvas.
func ResolveAnchor(anchor Anchor, canvasW, canvasH, wmW, wmH, margin int) (int, int) {
	left := margin
	center := floorHalf(canvasW - wmW)
	right := canvasW - wmW - margin
	top := margin
	middle := floorHalf(canvasH - wmH)
	bottom := canvasH - wmH - margin

	switch anchor {
	case TopLeft:
		return left, top
	case TopCenter:
		return center, top
	case TopRight:
		return right, top
	case MiddleLeft:
		return left, middle
	case Center:
		return center, middle
	case MiddleRight:
		return right, middle
	case BottomLeft:
		return left, bottom
	case BottomCenter:
		return center, bottom
	default:
		return right, bottom
	}
}

// floorHalf halves v rounding toward negative infinity.
func floorHalf(v int) int {
	if v < 0 {
		return -((1 - v) / 2)
	}
	return v / 2
}

// ResolveResize computes the target size for policy, preserving aspect ratio.
func ResolveResize(policy ResizePolicy, origW, origH int) (int, int, error) {
	if origW <= 0 || origH <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidImage, origW, origH)
	}

	switch p := policy.(type) {
	case nil, NoResize:
		return origW, origH, nil
	case ByWidth:
		w := max(1, p.Width)
		return w, scaleDim(origH, w, origW), nil
	case ByHeight:
		h := max(1, p.Height)
		return scaleDim(origW, h, origH), h, nil
	case ByPercentage:
		pct := min(max(p.Percent, 1), 1000)
		return scaleDim(origW, pct, 100), scaleDim(origH, pct, 100), nil
	default:
		return 0, 0, fmt.Errorf("unknown resize policy %T", policy)
	}
}

// scaleDim returns round(v*num/den), never less than 1.
func scaleDim(v, num, den int) int {
	return max(1, int(math.Round(float64(v)*float64(num)/float64(den))))
}

func clampGuard(v, size int) int {
	return min(max(v, 0), max(size-guardBand, 0))
}

// alphaFor converts a 0..100 opacity into an 8-bit alpha, rounding half up.
func alphaFor(opacity int) uint8 {
	opacity = min(max(opacity, 0), 100)
	return uint8((opacity*255 + 50) / 100)
}
