package editor

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/theme"
)

func TestFitRect(t *testing.T) {
	area := image.Rect(8, 8, 208, 108) // 200×100
	tests := []struct {
		name string
		p    image.Point
		want image.Rectangle
	}{
		{"exact fit", image.Pt(200, 100), image.Rect(8, 8, 208, 108)},
		{"wide is letterboxed", image.Pt(400, 100), image.Rect(8, 33, 208, 83)},
		{"tall is pillarboxed", image.Pt(100, 200), image.Rect(83, 8, 133, 108)},
		{"small is not enlarged", image.Pt(20, 10), image.Rect(98, 53, 118, 63)},
		{"empty photo", image.Pt(0, 10), image.Rectangle{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fitRect(tc.p, area); got != tc.want {
				t.Fatalf("fitRect(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestCanvasArea(t *testing.T) {
	if got := canvasArea(216, 140); got != image.Rect(8, 8, 208, 108) {
		t.Fatalf("canvasArea = %v", got)
	}
	if got := canvasArea(10, 10); !got.Empty() {
		t.Fatalf("tiny window should leave no canvas, got %v", got)
	}
}

func TestInitialSize(t *testing.T) {
	w := NewWindow(newTestSession(), WithMaxSize(416, 216))
	if gw, gh := w.initialSize(image.Pt(800, 200)); gw != 416 || gh != 100+16+statusHeight {
		t.Fatalf("initialSize = %d×%d", gw, gh)
	}
	if gw, gh := w.initialSize(image.Point{}); gw != 416 || gh != 216+statusHeight {
		t.Fatalf("initialSize without photo = %d×%d", gw, gh)
	}
}

func TestPaintFrame(t *testing.T) {
	th := theme.Default()
	photo := image.NewRGBA(image.Rect(0, 0, 20, 10))
	red := color.RGBA{255, 0, 0, 255}
	for i := 0; i < len(photo.Pix); i += 4 {
		copy(photo.Pix[i:], []byte{red.R, red.G, red.B, red.A})
	}
	dst := image.NewRGBA(image.Rect(0, 0, 216, 140))
	st := frame{
		width:  216,
		height: 140,
		canvas: fitRect(photo.Bounds().Size(), canvasArea(216, 140)),
		photo:  photo,
		status: "cap 1/1",
		theme:  th,
	}
	if !paintFrame(context.Background(), dst, st) {
		t.Fatal("paintFrame reported cancellation")
	}
	if got := dst.RGBAAt(2, 2); got != th.Background {
		t.Fatalf("background = %v", got)
	}
	if got := dst.RGBAAt(108, 58); got != red {
		t.Fatalf("canvas centre = %v", got)
	}
	if got := dst.RGBAAt(1, 139); got != th.StatusBackground {
		t.Fatalf("status bar = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if paintFrame(ctx, image.NewRGBA(dst.Bounds()), st) {
		t.Fatal("cancelled frame should report false")
	}
}

func TestPaintFrameMessage(t *testing.T) {
	th := theme.Default()
	dst := image.NewRGBA(image.Rect(0, 0, 300, 200))
	paintFrame(context.Background(), dst, frame{width: 300, height: 200, message: "saved out.png", theme: th})
	border := 0
	for x := 0; x < 300; x++ {
		if dst.RGBAAt(x, 88) == th.MessageBorder || dst.RGBAAt(x, 100) == th.MessageBorder {
			border++
		}
	}
	if border == 0 {
		t.Fatal("message box border not drawn")
	}
}

func TestSnapshotReportsFailedLoad(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession(nil, solid(20, 10, color.Black), WithSessionClock(func() time.Time { return now }))
	w := NewWindow(s)

	if st := w.snapshot(800, 600, image.Rectangle{}); st.status != "loading photo…" {
		t.Fatalf("status before load = %q", st.status)
	}
	s.CancelLoad()
	s.ApplyLoad(imageio.Result{Gen: 1, Err: imageio.ErrDecode})
	now = now.Add(3 * time.Second)

	st := w.snapshot(800, 600, image.Rectangle{})
	if !strings.HasPrefix(st.status, "could not load photo") {
		t.Fatalf("status after failed load = %q", st.status)
	}
	if st.message != "" {
		t.Fatalf("message should have expired, got %q", st.message)
	}
}
