package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"watermarker/internal/template"
	"watermarker/internal/watermark"
)

// watermarkFlags mirror the template record keys. Only flags the user
// actually set are written over the base record.
type watermarkFlags struct {
	kind     string
	text     string
	font     string
	fontSize float64
	bold     bool
	italic   bool
	color    string
	opacity  int
	shadow   bool
	image    string
	scale    int
	position string
	x, y     int
	rotation float64
}

func addWatermarkFlags(cmd *cobra.Command) *watermarkFlags {
	f := &watermarkFlags{}
	fl := cmd.Flags()
	fl.StringVar(&f.kind, "type", "", "watermark type: none, text or image")
	fl.StringVar(&f.text, "text", "", "watermark text; {date} expands to the capture date (implies --type text)")
	fl.StringVar(&f.font, "font", "", "font family name or path to a font file")
	fl.Float64Var(&f.fontSize, "font-size", 24, "font size in pixels")
	fl.BoolVar(&f.bold, "bold", false, "bold text")
	fl.BoolVar(&f.italic, "italic", false, "italic text")
	fl.StringVar(&f.color, "color", "#000000", "text colour as #rrggbb")
	fl.IntVar(&f.opacity, "opacity", 50, "watermark opacity 0-100")
	fl.BoolVar(&f.shadow, "shadow", true, "draw a drop shadow under text")
	fl.StringVar(&f.image, "image", "", "watermark image file (implies --type image)")
	fl.IntVar(&f.scale, "scale", 50, "image watermark scale in percent, 10-200")
	fl.StringVar(&f.position, "position", "", "anchor such as bottom_right, or custom")
	fl.IntVar(&f.x, "x", 0, "explicit x offset (implies --position custom)")
	fl.IntVar(&f.y, "y", 0, "explicit y offset (implies --position custom)")
	fl.Float64Var(&f.rotation, "rotation", 0, "rotation in degrees, counter-clockwise")
	return f
}

// apply writes every changed flag into rec.
func (f *watermarkFlags) apply(cmd *cobra.Command, rec template.Record) error {
	changed := cmd.Flags().Changed

	switch {
	case changed("type"):
		kind := strings.ToLower(f.kind)
		if kind != template.TypeNone && kind != template.TypeText && kind != template.TypeImage {
			return fmt.Errorf("--type must be none, text or image, got %q", f.kind)
		}
		rec[template.KeyType] = kind
	case changed("text"):
		rec[template.KeyType] = template.TypeText
	case changed("image"):
		rec[template.KeyType] = template.TypeImage
	}

	if changed("text") {
		rec[template.KeyText] = f.text
	}
	if changed("font") {
		rec[template.KeyFontFamily] = f.font
	}
	if changed("font-size") {
		if f.fontSize < 1 {
			return fmt.Errorf("--font-size must be at least 1")
		}
		rec[template.KeyFontSize] = f.fontSize
	}
	if changed("bold") {
		rec[template.KeyFontBold] = f.bold
	}
	if changed("italic") {
		rec[template.KeyFontItalic] = f.italic
	}
	if changed("shadow") {
		rec[template.KeyTextShadow] = f.shadow
	}
	if changed("color") {
		c, err := template.ParseColor(f.color)
		if err != nil {
			return fmt.Errorf("--color: %w", err)
		}
		rec[template.KeyTextColor] = template.FormatColor(c)
	}
	if changed("opacity") {
		if f.opacity < 0 || f.opacity > 100 {
			return fmt.Errorf("--opacity must be within 0-100")
		}
		if rec[template.KeyType] == template.TypeImage {
			rec[template.KeyImageOpacity] = f.opacity
		} else {
			rec[template.KeyTextOpacity] = f.opacity
		}
	}
	if changed("image") {
		path, err := filepath.Abs(f.image)
		if err != nil {
			return err
		}
		rec[template.KeyImagePath] = path
	}
	if changed("scale") {
		if f.scale < 10 || f.scale > 200 {
			return fmt.Errorf("--scale must be within 10-200")
		}
		rec[template.KeyImageScale] = f.scale
	}

	if changed("position") {
		if strings.EqualFold(f.position, template.PositionCustom) {
			rec[template.KeyPosition] = template.PositionCustom
		} else {
			anchor, err := watermark.ParseAnchor(f.position)
			if err != nil {
				return fmt.Errorf("--position: %w", err)
			}
			rec[template.KeyPosition] = string(anchor)
		}
	}
	if changed("x") || changed("y") {
		rec[template.KeyPosition] = template.PositionCustom
		if changed("x") {
			rec[template.KeyX] = f.x
		}
		if changed("y") {
			rec[template.KeyY] = f.y
		}
	}
	if changed("rotation") {
		rec[template.KeyRotation] = f.rotation
	}
	return nil
}

// baseTemplate picks what flag overrides are layered on: a named template,
// the defaults when fresh is set, or else the last-used record.
func baseTemplate(ctx context.Context, store template.Store, name string, fresh bool) (template.Template, error) {
	switch {
	case name != "":
		return store.Load(ctx, name)
	case fresh:
		return template.Defaults(), nil
	}
	tpl, err := store.LoadLastUsed(ctx)
	if errors.Is(err, template.ErrNotFound) {
		return template.Defaults(), nil
	}
	return tpl, err
}

func resolveTemplate(ctx context.Context, cmd *cobra.Command, store template.Store, flags *watermarkFlags, name string, fresh bool) (template.Template, error) {
	base, err := baseTemplate(ctx, store, name, fresh)
	if err != nil {
		return template.Template{}, err
	}
	rec := template.Serialize(base)
	if err := flags.apply(cmd, rec); err != nil {
		return template.Template{}, err
	}
	return template.Deserialize(rec), nil
}

type resizeFlags struct {
	width   int
	height  int
	percent int
}

func addResizeFlags(cmd *cobra.Command) *resizeFlags {
	f := &resizeFlags{}
	cmd.Flags().IntVar(&f.width, "width", 0, "resize to this width, keeping aspect ratio")
	cmd.Flags().IntVar(&f.height, "height", 0, "resize to this height, keeping aspect ratio")
	cmd.Flags().IntVar(&f.percent, "percent", 0, "resize by percentage")
	cmd.MarkFlagsMutuallyExclusive("width", "height", "percent")
	return f
}

func (f *resizeFlags) policy(cmd *cobra.Command) watermark.ResizePolicy {
	changed := cmd.Flags().Changed
	switch {
	case changed("width"):
		return watermark.ByWidth{Width: f.width}
	case changed("height"):
		return watermark.ByHeight{Height: f.height}
	case changed("percent"):
		return watermark.ByPercentage{Percent: f.percent}
	default:
		return watermark.NoResize{}
	}
}
