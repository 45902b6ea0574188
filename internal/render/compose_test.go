package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/example/capstayson/internal/overlay"
)

var (
	gray = color.RGBA{128, 128, 128, 255}
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// splitCap is a 20×10 image whose first half (by rows when horizontal is
// false, by columns otherwise) is red and second half blue.
func splitCap(horizontal bool) *image.RGBA {
	img := solid(20, 10, red)
	second := image.Rect(0, 5, 20, 10)
	if horizontal {
		second = image.Rect(10, 0, 20, 10)
	}
	draw.Draw(img, second, image.NewUniform(blue), image.Point{}, draw.Src)
	return img
}

func newTestModel() *overlay.Model {
	n := 0
	return overlay.NewModel(overlay.WithIDGenerator(func() overlay.ID {
		n++
		return overlay.ID(fmt.Sprintf("cap-%d", n))
	}))
}

func isColor(c color.RGBA, want color.RGBA) bool {
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(c.R, want.R) <= 2 && d(c.G, want.G) <= 2 && d(c.B, want.B) <= 2 && d(c.A, want.A) <= 2
}

func TestRenderWithoutDecorationIsDeterministic(t *testing.T) {
	m := newTestModel()
	m.Add()
	m.Update(m.SelectedID(), overlay.Fields{Rotation: overlay.Float(33), FlipY: overlay.Bool(true)})
	base, capImg := solid(200, 100, gray), splitCap(false)

	a := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), false)
	first := append([]byte(nil), a.Pix...)
	b := Render(a, base, m.Overlays(), capImg, m.SelectedID(), false)
	if !bytes.Equal(first, b.Pix) {
		t.Fatal("re-rendering the same scene produced different pixels")
	}
	if b != a {
		t.Fatal("a matching surface should be reused")
	}
}

func TestDecorationOnlyTouchesSelectionStroke(t *testing.T) {
	m := newTestModel()
	m.Add()
	base, capImg := solid(200, 100, gray), splitCap(false)

	plain := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), false)
	decorated := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), true)

	// The selected overlay covers x 60..140, y 30..70. Its outline sits 2px
	// outside that box and is 3px wide.
	inStroke := func(x, y int) bool {
		outer := x >= 56 && x <= 143 && y >= 26 && y <= 73
		inner := x >= 60 && x <= 139 && y >= 30 && y <= 69
		return outer && !inner
	}
	diffs := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if plain.RGBAAt(x, y) == decorated.RGBAAt(x, y) {
				continue
			}
			diffs++
			if !inStroke(x, y) {
				t.Fatalf("pixel %d,%d changed outside the selection stroke", x, y)
			}
		}
	}
	if diffs == 0 {
		t.Fatal("decoration drew nothing")
	}
	if got := decorated.RGBAAt(60, 28); !isColor(got, SelectionColor) {
		t.Fatalf("first dash pixel = %v, want %v", got, SelectionColor)
	}
	if got := decorated.RGBAAt(66, 28); got != plain.RGBAAt(66, 28) {
		t.Fatalf("first gap pixel was painted: %v", got)
	}
}

func TestRenderStacksOverlaysInOrder(t *testing.T) {
	m := newTestModel()
	m.Add() // cap-2 at 50,50 sits on top of cap-1 at 50,30.
	out := Render(nil, solid(200, 100, gray), m.Overlays(), splitCap(false), m.SelectedID(), false)

	if b := out.Bounds(); b != image.Rect(0, 0, 200, 100) {
		t.Fatalf("surface bounds %v", b)
	}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"background", 5, 5, gray},
		{"first cap top half", 100, 15, red},
		{"overlap shows second cap", 100, 40, red},
		{"second cap bottom half", 100, 65, blue},
		{"first cap left edge", 61, 20, red},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := out.RGBAAt(tc.x, tc.y); !isColor(got, tc.want) {
				t.Fatalf("pixel %d,%d = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestRenderAppliesFlipAndRotation(t *testing.T) {
	base, capImg := solid(200, 100, gray), splitCap(true)
	tests := []struct {
		name   string
		fields overlay.Fields
		checks map[image.Point]color.RGBA
	}{
		{
			name:   "plain",
			fields: overlay.Fields{},
			checks: map[image.Point]color.RGBA{{70, 50}: red, {130, 50}: blue},
		},
		{
			name:   "flip x",
			fields: overlay.Fields{FlipX: overlay.Bool(true)},
			checks: map[image.Point]color.RGBA{{70, 50}: blue, {130, 50}: red},
		},
		{
			name:   "half turn",
			fields: overlay.Fields{Rotation: overlay.Float(180)},
			checks: map[image.Point]color.RGBA{{70, 50}: blue, {130, 50}: red},
		},
		{
			name:   "quarter turn",
			fields: overlay.Fields{Rotation: overlay.Float(90)},
			checks: map[image.Point]color.RGBA{{100, 25}: red, {100, 75}: blue, {70, 50}: gray},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel()
			f := tc.fields
			f.X, f.Y, f.Size = overlay.Float(50), overlay.Float(50), overlay.Float(40)
			m.Update(m.SelectedID(), f)
			out := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), false)
			for p, want := range tc.checks {
				if got := out.RGBAAt(p.X, p.Y); !isColor(got, want) {
					t.Errorf("pixel %v = %v, want %v", p, got, want)
				}
			}
		})
	}
}
