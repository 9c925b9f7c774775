// Package template persists watermark settings as flat key/value records.
package template

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"watermarker/internal/watermark"
)

// Record keys.
const (
	KeyType         = "watermark_type"
	KeyText         = "watermark_text"
	KeyFontFamily   = "watermark_font_family"
	KeyFontSize     = "watermark_font_size"
	KeyFontBold     = "watermark_font_bold"
	KeyFontItalic   = "watermark_font_italic"
	KeyTextColor    = "watermark_text_color"
	KeyTextOpacity  = "watermark_text_opacity"
	KeyTextShadow   = "watermark_text_shadow"
	KeyImagePath    = "watermark_image_path"
	KeyImageScale   = "watermark_image_scale"
	KeyImageOpacity = "watermark_image_opacity"
	KeyPosition     = "watermark_position"
	KeyX            = "watermark_x"
	KeyY            = "watermark_y"
	KeyRotation     = "watermark_rotation"
)

const (
	TypeNone  = "none"
	TypeText  = "text"
	TypeImage = "image"

	// PositionCustom selects explicit coordinates from KeyX and KeyY.
	PositionCustom = "custom"
)

const (
	defaultFontSize     = 24
	defaultTextColor    = "#000000"
	defaultTextOpacity  = 50
	defaultTextShadow   = true
	defaultImageScale   = 50
	defaultImageOpacity = 50
	defaultPosition     = watermark.BottomRight
)

// Record is the flat persisted form of a Template.
type Record map[string]any

// Template is a named snapshot of watermark, placement and rotation.
type Template struct {
	Name      string
	Watermark watermark.Spec
	Placement watermark.Placement
	Rotation  float64
}

// Defaults is the template every missing or malformed key falls back to.
func Defaults() Template {
	return Deserialize(Record{})
}

// Apply copies the template's settings into req and returns the result.
func (t Template) Apply(req watermark.RenderRequest) watermark.RenderRequest {
	req.Watermark = t.Watermark
	req.Placement = t.Placement
	req.Rotation = t.Rotation
	return req
}

// Serialize flattens t. Keys for the inactive watermark kind carry their
// defaults so every record has the full key set.
func Serialize(t Template) Record {
	rec := Record{
		KeyType:         TypeNone,
		KeyText:         "",
		KeyFontFamily:   "",
		KeyFontSize:     float64(defaultFontSize),
		KeyFontBold:     false,
		KeyFontItalic:   false,
		KeyTextColor:    defaultTextColor,
		KeyTextOpacity:  defaultTextOpacity,
		KeyTextShadow:   defaultTextShadow,
		KeyImagePath:    "",
		KeyImageScale:   defaultImageScale,
		KeyImageOpacity: defaultImageOpacity,
		KeyPosition:     string(defaultPosition),
		KeyX:            0,
		KeyY:            0,
		KeyRotation:     watermark.NormalizeRotation(t.Rotation),
	}

	switch spec := t.Watermark.(type) {
	case nil, watermark.NoWatermark:
	case watermark.TextWatermark:
		rec[KeyType] = TypeText
		rec[KeyText] = spec.Content
		rec[KeyFontFamily] = spec.FontFamily
		rec[KeyFontSize] = spec.FontSize
		rec[KeyFontBold] = spec.Bold
		rec[KeyFontItalic] = spec.Italic
		rec[KeyTextColor] = FormatColor(spec.Color)
		rec[KeyTextOpacity] = spec.Opacity
		rec[KeyTextShadow] = spec.Shadow
	case watermark.ImageWatermark:
		rec[KeyType] = TypeImage
		rec[KeyImagePath] = spec.SourcePath
		rec[KeyImageScale] = spec.ScalePercent
		rec[KeyImageOpacity] = spec.Opacity
	}

	switch p := t.Placement.(type) {
	case watermark.AtAnchor:
		rec[KeyPosition] = string(p.Anchor)
	case watermark.AtPoint:
		rec[KeyPosition] = PositionCustom
		rec[KeyX] = p.X
		rec[KeyY] = p.Y
	}

	return rec
}

// Deserialize rebuilds a Template from rec. Missing, mistyped or out-of-range
// fields take their defaults; it never fails.
func Deserialize(rec Record) Template {
	t := Template{
		Rotation:  watermark.NormalizeRotation(rec.getFloat(KeyRotation, 0)),
		Placement: watermark.AtAnchor{Anchor: defaultPosition},
	}

	switch strings.ToLower(rec.getString(KeyType, TypeNone)) {
	case TypeText:
		size := rec.getFloat(KeyFontSize, defaultFontSize)
		if size < 1 {
			size = defaultFontSize
		}
		c, err := ParseColor(rec.getString(KeyTextColor, defaultTextColor))
		if err != nil {
			c, _ = ParseColor(defaultTextColor)
		}
		t.Watermark = watermark.TextWatermark{
			Content:    rec.getString(KeyText, ""),
			FontFamily: rec.getString(KeyFontFamily, ""),
			FontSize:   size,
			Bold:       rec.getBool(KeyFontBold, false),
			Italic:     rec.getBool(KeyFontItalic, false),
			Color:      c,
			Opacity:    rec.getIntIn(KeyTextOpacity, defaultTextOpacity, 0, 100),
			Shadow:     rec.getBool(KeyTextShadow, defaultTextShadow),
		}
	case TypeImage:
		t.Watermark = watermark.ImageWatermark{
			SourcePath:   rec.getString(KeyImagePath, ""),
			ScalePercent: rec.getIntIn(KeyImageScale, defaultImageScale, 10, 200),
			Opacity:      rec.getIntIn(KeyImageOpacity, defaultImageOpacity, 0, 100),
		}
	default:
		t.Watermark = watermark.NoWatermark{}
	}

	position := rec.getString(KeyPosition, string(defaultPosition))
	if strings.EqualFold(position, PositionCustom) {
		t.Placement = watermark.AtPoint{X: rec.getInt(KeyX, 0), Y: rec.getInt(KeyY, 0)}
	} else if anchor, err := watermark.ParseAnchor(position); err == nil {
		t.Placement = watermark.AtAnchor{Anchor: anchor}
	}

	return t
}

// Encode renders t as an indented JSON object.
func Encode(t Template) ([]byte, error) {
	return json.MarshalIndent(Serialize(t), "", "  ")
}

// Decode parses a JSON object into a Template. Only input that is not a JSON
// object is rejected.
func Decode(data []byte) (Template, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec == nil {
		return Template{}, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}
	return Deserialize(rec), nil
}

// ParseColor accepts #rrggbb and #rgb.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (r Record) getString(key, def string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return def
}

func (r Record) getNumber(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func (r Record) getFloat(key string, def float64) float64 {
	if f, ok := r.getNumber(key); ok {
		return f
	}
	return def
}

func (r Record) getInt(key string, def int) int {
	if f, ok := r.getNumber(key); ok && math.Abs(f) < math.MaxInt32 {
		return int(math.Round(f))
	}
	return def
}

func (r Record) getIntIn(key string, def, lo, hi int) int {
	v := r.getInt(key, def)
	if v < lo || v > hi {
		return def
	}
	return v
}

func (r Record) getBool(key string, def bool) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return def
}
