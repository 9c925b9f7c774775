package watermark

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Spec is the watermark to apply. It is one of NoWatermark, TextWatermark or
// ImageWatermark.
type Spec interface {
	isSpec()
}

type NoWatermark struct{}

// TextWatermark renders Content with the given font. Opacity is 0..100 and is
// only converted to an 8-bit alpha when the layer is rasterised. The alpha
// channel of Color is ignored.
type TextWatermark struct {
	Content    string
	FontFamily string
	FontSize   float64 `validate:"gt=0"`
	Bold       bool
	Italic     bool
	Color      color.RGBA
	Opacity    int `validate:"gte=0,lte=100"`
	Shadow     bool
}

// ImageWatermark scales and fades a logo. Source takes precedence over
// SourcePath when both are set.
type ImageWatermark struct {
	SourcePath   string
	Source       image.Image
	ScalePercent int `validate:"gte=10,lte=200"`
	Opacity      int `validate:"gte=0,lte=100"`
}

func (NoWatermark) isSpec()    {}
func (TextWatermark) isSpec()  {}
func (ImageWatermark) isSpec() {}

type Anchor string

const (
	TopLeft      Anchor = "top_left"
	TopCenter    Anchor = "top_center"
	TopRight     Anchor = "top_right"
	MiddleLeft   Anchor = "middle_left"
	Center       Anchor = "center"
	MiddleRight  Anchor = "middle_right"
	BottomLeft   Anchor = "bottom_left"
	BottomCenter Anchor = "bottom_center"
	BottomRight  Anchor = "bottom_right"
)

// Anchors lists the nine grid positions in row-major order.
var Anchors = []Anchor{
	TopLeft, TopCenter, TopRight,
	MiddleLeft, Center, MiddleRight,
	BottomLeft, BottomCenter, BottomRight,
}

// ParseAnchor accepts the canonical snake_case names plus hyphenated
// spellings and "middle_center".
func ParseAnchor(s string) (Anchor, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "middle_center" {
		return Center, nil
	}
	for _, a := range Anchors {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown anchor %q", s)
}

// Placement positions the watermark layer. It is one of AtAnchor or AtPoint.
type Placement interface {
	isPlacement()
}

type AtAnchor struct {
	Anchor Anchor `validate:"oneof=top_left top_center top_right middle_left center middle_right bottom_left bottom_center bottom_right"`
}

// AtPoint is the layer's top-left corner in canvas pixels. Negative or
// off-canvas values are allowed.
type AtPoint struct {
	X, Y int
}

func (AtAnchor) isPlacement() {}
func (AtPoint) isPlacement()  {}

// ResizePolicy is one of NoResize, ByWidth, ByHeight or ByPercentage.
type ResizePolicy interface {
	isResize()
}

type NoResize struct{}

type ByWidth struct {
	Width int `validate:"gt=0"`
}

type ByHeight struct {
	Height int `validate:"gt=0"`
}

type ByPercentage struct {
	Percent int `validate:"gte=1,lte=1000"`
}

func (NoResize) isResize()     {}
func (ByWidth) isResize()      {}
func (ByHeight) isResize()     {}
func (ByPercentage) isResize() {}

type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	default:
		return "png"
	}
}

// Ext is the file extension written for f, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return FormatPNG, fmt.Errorf("unknown output format %q", s)
	}
}

// RenderRequest is everything Composite needs for one image. It is passed by
// value and never mutated by the engine.
type RenderRequest struct {
	Resize    ResizePolicy
	Watermark Spec
	Placement Placement
	Rotation  float64
	Format    Format
}

var validate = validator.New()

// Validate checks the ranges of every variant in the request. Composite
// tolerates out-of-range values by clamping; Validate is for callers that
// want to reject bad input up front.
func (r RenderRequest) Validate() error {
	if math.IsNaN(r.Rotation) || math.IsInf(r.Rotation, 0) {
		return fmt.Errorf("rotation must be finite")
	}
	if r.Format != FormatPNG && r.Format != FormatJPEG {
		return fmt.Errorf("unknown output format %d", r.Format)
	}

	switch p := r.Resize.(type) {
	case nil, NoResize:
	case ByWidth, ByHeight, ByPercentage:
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	default:
		return fmt.Errorf("unknown resize policy %T", p)
	}

	switch s := r.Watermark.(type) {
	case nil, NoWatermark:
	case TextWatermark, ImageWatermark:
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("watermark: %w", err)
		}
	default:
		return fmt.Errorf("unknown watermark %T", s)
	}

	switch p := r.Placement.(type) {
	case nil, AtPoint:
	case AtAnchor:
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("placement: %w", err)
		}
	default:
		return fmt.Errorf("unknown placement %T", p)
	}

	return nil
}

// NormalizeRotation maps any finite angle into [0, 360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
