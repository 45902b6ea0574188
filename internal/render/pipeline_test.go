package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/example/capstayson/internal/overlay"
)

func TestPipelineNotReady(t *testing.T) {
	m := newTestModel()
	p := NewPipeline(m)
	if _, err := p.Render(true); !errors.Is(err, ErrNotReady) {
		t.Fatalf("render without photo: %v", err)
	}
	p.SetBase(solid(20, 10, gray))
	if _, err := p.ExportPNG(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("export without cap: %v", err)
	}
	if _, err := p.Geometry(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("geometry without cap: %v", err)
	}
}

func TestPipelineGeometry(t *testing.T) {
	p := NewPipeline(newTestModel(), WithBase(solid(200, 100, gray)), WithCap(splitCap(false)))
	g, err := p.Geometry()
	if err != nil {
		t.Fatal(err)
	}
	if g.W != 200 || g.H != 100 || g.CapAspect != 2 {
		t.Fatalf("geometry = %+v", g)
	}
}

func TestExportPNGOmitsDecorationAndRestoresPreview(t *testing.T) {
	m := newTestModel()
	m.Add()
	base, capImg := solid(200, 100, gray), splitCap(false)
	p := NewPipeline(m, WithBase(base), WithCap(capImg))
	if _, err := p.Render(true); err != nil {
		t.Fatal(err)
	}

	data, err := p.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	got := image.NewRGBA(decoded.Bounds())
	draw.Draw(got, got.Bounds(), decoded, decoded.Bounds().Min, draw.Src)

	plain := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), false)
	if got.Bounds() != plain.Bounds() || !bytes.Equal(got.Pix, plain.Pix) {
		t.Fatal("exported pixels differ from the undecorated render")
	}
	decorated := Render(nil, base, m.Overlays(), capImg, m.SelectedID(), true)
	if !bytes.Equal(p.Surface().Pix, decorated.Pix) {
		t.Fatal("preview was not restored to the decorated render")
	}
}

func TestExportIsNotReentrant(t *testing.T) {
	p := NewPipeline(newTestModel(), WithBase(solid(20, 10, gray)), WithCap(splitCap(false)))
	p.exporting.Store(true)
	if _, err := p.ExportImage(); !errors.Is(err, ErrExportInProgress) {
		t.Fatalf("expected ErrExportInProgress, got %v", err)
	}
	p.exporting.Store(false)
	if _, err := p.ExportImage(); err != nil {
		t.Fatalf("export after release: %v", err)
	}
}

func TestSetBaseKeepsOverlays(t *testing.T) {
	m := newTestModel()
	m.Add()
	before := m.Overlays()
	p := NewPipeline(m, WithBase(solid(200, 100, gray)), WithCap(splitCap(false)))
	p.SetBase(solid(40, 80, gray))
	out, err := p.Render(false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 40, 80) {
		t.Fatalf("surface not resized: %v", out.Bounds())
	}
	after := m.Overlays()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("overlay %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestExportPlacesEveryOverlay(t *testing.T) {
	m := newTestModel()
	m.Add()
	second := m.SelectedID()
	m.Update(second, overlay.Fields{X: overlay.Float(20), Y: overlay.Float(20), Size: overlay.Float(10)})
	p := NewPipeline(m, WithBase(solid(200, 100, gray)), WithCap(splitCap(false)))

	data, err := p.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	out := image.NewRGBA(decoded.Bounds())
	draw.Draw(out, out.Bounds(), decoded, decoded.Bounds().Min, draw.Src)

	if ids := m.Overlays(); ids[len(ids)-1].ID != second {
		t.Fatalf("moved overlay is not drawn last: %+v", ids)
	}
	// The first overlay covers x 60..140, y 10..50; the second is 20×10
	// centred on (40,20).
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"first cap top half", 100, 20, red},
		{"first cap bottom half", 100, 45, blue},
		{"second cap top half", 40, 17, red},
		{"second cap bottom half", 40, 23, blue},
		{"left of second cap", 27, 20, gray},
		{"below second cap", 40, 28, gray},
		{"between caps", 55, 20, gray},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := out.RGBAAt(tc.x, tc.y); !isColor(got, tc.want) {
				t.Fatalf("pixel %d,%d = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}
