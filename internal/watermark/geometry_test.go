package watermark

import (
	"errors"
	"math"
	"testing"
)

func TestResolveAnchor(t *testing.T) {
	const (
		canvasW = 1000
		canvasH = 800
		wmW     = 100
		wmH     = 50
	)

	cases := []struct {
		anchor Anchor
		x, y   int
	}{
		{TopLeft, 20, 20},
		{TopCenter, 450, 20},
		{TopRight, 880, 20},
		{MiddleLeft, 20, 375},
		{Center, 450, 375},
		{MiddleRight, 880, 375},
		{BottomLeft, 20, 730},
		{BottomCenter, 450, 730},
		{BottomRight, 880, 730},
	}

	for _, tc := range cases {
		t.Run(string(tc.anchor), func(t *testing.T) {
			x, y := ResolveAnchor(tc.anchor, canvasW, canvasH, wmW, wmH, DefaultMargin)
			if x != tc.x || y != tc.y {
				t.Fatalf("got (%d,%d), want (%d,%d)", x, y, tc.x, tc.y)
			}
		})
	}
}

func TestResolveAnchorCenterExact(t *testing.T) {
	for _, dims := range [][4]int{{640, 480, 100, 40}, {300, 200, 300, 200}, {50, 50, 150, 90}} {
		W, H, w, h := dims[0], dims[1], dims[2], dims[3]
		x, y := ResolveAnchor(Center, W, H, w, h, DefaultMargin)
		if x != (W-w)/2 || y != (H-h)/2 {
			t.Fatalf("center %v: got (%d,%d)", dims, x, y)
		}
	}
}

func TestResolveAnchorCenterFloorsOversized(t *testing.T) {
	cases := []struct {
		canvas, layer, want int
	}{
		{10, 13, -2},
		{10, 12, -1},
		{10, 11, -1},
		{11, 10, 0},
		{10, 7, 1},
	}
	for _, tc := range cases {
		x, y := ResolveAnchor(Center, tc.canvas, tc.canvas, tc.layer, tc.layer, DefaultMargin)
		if x != tc.want || y != tc.want {
			t.Fatalf("canvas %d layer %d: got (%d,%d), want %d", tc.canvas, tc.layer, x, y, tc.want)
		}
	}
	if x, _ := ResolveAnchor(TopCenter, 20, 20, 25, 5, DefaultMargin); x != -3 {
		t.Fatalf("top center x %d, want -3", x)
	}
}

func TestResolveAnchorNoClamp(t *testing.T) {
	x, y := ResolveAnchor(BottomRight, 100, 100, 300, 200, DefaultMargin)
	if x != -220 || y != -120 {
		t.Fatalf("got (%d,%d), want (-220,-120)", x, y)
	}
}

func TestResolveResize(t *testing.T) {
	cases := []struct {
		name         string
		policy       ResizePolicy
		origW, origH int
		w, h         int
	}{
		{"none", NoResize{}, 1000, 800, 1000, 800},
		{"nil", nil, 12, 34, 12, 34},
		{"width", ByWidth{Width: 500}, 1000, 800, 500, 400},
		{"width-rounds", ByWidth{Width: 333}, 1000, 800, 333, 266},
		{"width-min", ByWidth{Width: 0}, 1000, 800, 1, 1},
		{"height", ByHeight{Height: 200}, 1000, 800, 250, 200},
		{"percent", ByPercentage{Percent: 50}, 1000, 800, 500, 400},
		{"percent-clamp-low", ByPercentage{Percent: -5}, 1000, 800, 10, 8},
		{"percent-clamp-high", ByPercentage{Percent: 5000}, 10, 8, 100, 80},
		{"tiny", ByPercentage{Percent: 1}, 20, 20, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := ResolveResize(tc.policy, tc.origW, tc.origH)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if w != tc.w || h != tc.h {
				t.Fatalf("got %dx%d, want %dx%d", w, h, tc.w, tc.h)
			}
		})
	}
}

func TestResolveResizeDegenerate(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {0, 0}, {-1, 5}} {
		if _, _, err := ResolveResize(ByWidth{Width: 10}, dims[0], dims[1]); !errors.Is(err, ErrInvalidImage) {
			t.Fatalf("%v: expected ErrInvalidImage, got %v", dims, err)
		}
	}
}

func TestResolveResizePreservesAspect(t *testing.T) {
	for _, orig := range [][2]int{{1000, 800}, {333, 777}, {800, 1000}, {640, 480}} {
		origRatio := float64(orig[0]) / float64(orig[1])
		for p := 1; p <= 1000; p++ {
			w, h, err := ResolveResize(ByPercentage{Percent: p}, orig[0], orig[1])
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			diff := math.Abs(float64(w)/float64(h) - origRatio)
			if diff >= 1/float64(min(w, h)) {
				t.Fatalf("%v at %d%%: %dx%d drifts by %f", orig, p, w, h, diff)
			}
		}
	}
}

func TestAlphaFor(t *testing.T) {
	cases := map[int]uint8{0: 0, 100: 255, 50: 128, 20: 51, -10: 0, 150: 255}
	for opacity, want := range cases {
		if got := alphaFor(opacity); got != want {
			t.Errorf("alphaFor(%d) = %d, want %d", opacity, got, want)
		}
	}

	prev := alphaFor(0)
	for o := 1; o <= 100; o++ {
		a := alphaFor(o)
		if a < prev {
			t.Fatalf("alpha not monotonic at %d", o)
		}
		prev = a
	}
}

func TestClampGuard(t *testing.T) {
	cases := []struct{ v, size, want int }{
		{-50, 100, 0},
		{40, 100, 40},
		{95, 100, 90},
		{5, 4, 0},
	}
	for _, tc := range cases {
		if got := clampGuard(tc.v, tc.size); got != tc.want {
			t.Errorf("clampGuard(%d, %d) = %d, want %d", tc.v, tc.size, got, tc.want)
		}
	}
}

func TestParseAnchor(t *testing.T) {
	cases := map[string]Anchor{
		"bottom_right":  BottomRight,
		"Top-Left":      TopLeft,
		"middle_center": Center,
		" center ":      Center,
	}
	for in, want := range cases {
		got, err := ParseAnchor(in)
		if err != nil || got != want {
			t.Errorf("ParseAnchor(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAnchor("upper_left"); err == nil {
		t.Fatalf("expected error for unknown anchor")
	}
}

func TestNormalizeRotation(t *testing.T) {
	cases := map[float64]float64{0: 0, 90: 90, 360: 0, 370: 10, -90: 270, 720.5: 0.5}
	for in, want := range cases {
		if got := NormalizeRotation(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeRotation(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRenderRequestValidate(t *testing.T) {
	valid := RenderRequest{
		Resize:    ByWidth{Width: 10},
		Watermark: TextWatermark{Content: "x", FontSize: 12, Opacity: 50},
		Placement: AtAnchor{Anchor: Center},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	invalid := []RenderRequest{
		{Resize: ByWidth{Width: 0}},
		{Resize: ByPercentage{Percent: 2000}},
		{Watermark: TextWatermark{Content: "x", FontSize: 12, Opacity: 101}},
		{Watermark: TextWatermark{Content: "x", FontSize: 0, Opacity: 50}},
		{Watermark: ImageWatermark{ScalePercent: 5, Opacity: 50}},
		{Placement: AtAnchor{Anchor: "nowhere"}},
		{Rotation: math.NaN()},
		{Format: Format(7)},
	}
	for i, req := range invalid {
		if err := req.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
