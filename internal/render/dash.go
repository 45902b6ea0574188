package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/example/capstayson/internal/overlay"
	"golang.org/x/image/vector"
)

// Selection decoration parameters.
const (
	selectionDash   = 5.0
	selectionGap    = 5.0
	selectionWidth  = 3.0
	selectionOutset = 2.0
)

// SelectionColor is the teal used to outline the selected overlay in the
// preview. It never reaches exported images.
var SelectionColor = color.RGBA{0x0D, 0x94, 0x88, 0xFF}

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) mul(k float64) vec   { return vec{a.x * k, a.y * k} }
func (a vec) len() float64        { return math.Hypot(a.x, a.y) }
func lerp(a, b vec, t float64) vec { return a.add(b.sub(a).mul(t)) }

// dashWalker tracks where along an alternating on/off pattern a stroke is.
type dashWalker struct {
	pattern []float64
	idx     int
	left    float64
}

func newDashWalker(pattern ...float64) *dashWalker {
	return &dashWalker{pattern: pattern, left: pattern[0]}
}

func (d *dashWalker) on() bool { return d.idx%2 == 0 }

// segments splits the polyline through pts into the pieces that fall on the
// "on" parts of the pattern. The pattern carries across vertices. corners
// receives each vertex that an on piece runs through.
func (d *dashWalker) segments(pts []vec) (runs [][2]vec, corners []vec) {
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		length := b.sub(a).len()
		if length == 0 {
			continue
		}
		if i > 0 && d.on() && d.left < d.pattern[d.idx] {
			corners = append(corners, a)
		}
		pos := 0.0
		for pos < length {
			step := math.Min(d.left, length-pos)
			if d.on() {
				runs = append(runs, [2]vec{lerp(a, b, pos/length), lerp(a, b, (pos+step)/length)})
			}
			pos += step
			d.left -= step
			if d.left <= 0 {
				d.idx = (d.idx + 1) % len(d.pattern)
				d.left = d.pattern[d.idx]
			}
		}
	}
	return runs, corners
}

// strokeDashedRect strokes the rectangle (x0,y0)-(x1,y1) given in the local
// space of frame with a dashed line of the given width. The dash starts at
// the top-left corner and runs clockwise.
func strokeDashedRect(dst *image.RGBA, frame overlay.Affine, x0, y0, x1, y1 float64, width float64, col color.Color) {
	pts := []vec{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	runs, corners := newDashWalker(selectionDash, selectionGap).segments(pts)

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	half := width / 2
	quad := func(p0, p1, p2, p3 vec) {
		pts := [4]vec{p0, p1, p2, p3}
		for i, p := range pts {
			x, y := frame.Apply(p.x, p.y)
			x -= float64(b.Min.X)
			y -= float64(b.Min.Y)
			if i == 0 {
				z.MoveTo(float32(x), float32(y))
			} else {
				z.LineTo(float32(x), float32(y))
			}
		}
		z.ClosePath()
	}
	for _, r := range runs {
		dir := r[1].sub(r[0])
		n := vec{-dir.y, dir.x}.mul(half / dir.len())
		quad(r[0].add(n), r[1].add(n), r[1].sub(n), r[0].sub(n))
	}
	// Miter joins on a rectangle are squares centred on the vertex.
	for _, c := range corners {
		quad(c.add(vec{-half, -half}), c.add(vec{half, -half}), c.add(vec{half, half}), c.add(vec{-half, half}))
	}
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// outline strokes o on dst, selectionOutset pixels outside its local box.
func outline(dst *image.RGBA, o overlay.Overlay, w, h, capAspect float64) {
	pw, ph := overlay.PixelSize(o, w, capAspect)
	frame := overlay.LocalFrame(o, w, h, capAspect)
	strokeDashedRect(dst, frame,
		-selectionOutset, -selectionOutset, pw+selectionOutset, ph+selectionOutset,
		selectionWidth, SelectionColor)
}
