package overlay

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (px, py) lies inside r. Edges count as inside.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && px <= r.X+r.W && py >= r.Y && py <= r.Y+r.H
}

// PixelSize returns the rendered width and height of o on a canvas w pixels
// wide. capAspect is the cap asset's width divided by its height.
func PixelSize(o Overlay, w, capAspect float64) (pw, ph float64) {
	pw = w * o.Size / 100
	ph = pw / capAspect
	return pw, ph
}

// TopLeft returns the canvas pixel of o's unrotated top-left corner.
func TopLeft(o Overlay, w, h, pw, ph float64) (x, y float64) {
	return w*o.Position.X/100 - pw/2, h*o.Position.Y/100 - ph/2
}

// Center returns the canvas pixel o is centred on.
func Center(o Overlay, w, h float64) (cx, cy float64) {
	return w * o.Position.X / 100, h * o.Position.Y / 100
}

// Bounds returns o's unrotated bounding box in canvas pixels.
func Bounds(o Overlay, w, h, capAspect float64) Rect {
	pw, ph := PixelSize(o, w, capAspect)
	x, y := TopLeft(o, w, h, pw, ph)
	return Rect{X: x, Y: y, W: pw, H: ph}
}

// PointerToCanvas maps a pointer position in display coordinates to canvas
// pixels. The canvas is shown in display rectangle r, which may be scaled
// independently of its w×h pixel buffer.
func PointerToCanvas(clientX, clientY float64, r Rect, w, h float64) (px, py float64) {
	if r.W == 0 || r.H == 0 {
		return clientX - r.X, clientY - r.Y
	}
	return (clientX - r.X) * (w / r.W), (clientY - r.Y) * (h / r.H)
}

// Affine is a 2×3 affine matrix:
//
//	[A B TX]
//	[C D TY]
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() Affine { return Affine{A: 1, D: 1} }

// Translation returns a translation by (tx, ty).
func Translation(tx, ty float64) Affine { return Affine{A: 1, D: 1, TX: tx, TY: ty} }

// Rotation returns a rotation about the origin. Positive angles turn
// clockwise on a y-down canvas.
func Rotation(radians float64) Affine {
	sin, cos := math.Sincos(radians)
	return Affine{A: cos, B: -sin, C: sin, D: cos}
}

// Scale returns a scale by (sx, sy).
func Scale(sx, sy float64) Affine { return Affine{A: sx, D: sy} }

// Mul returns t·u, the transform that applies u first and then t.
func (t Affine) Mul(u Affine) Affine {
	return Affine{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		TX: t.A*u.TX + t.B*u.TY + t.TX,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		TY: t.C*u.TX + t.D*u.TY + t.TY,
	}
}

// Apply maps (x, y) through t.
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.TX, t.C*x + t.D*y + t.TY
}

// Aff3 converts t to the matrix layout used by golang.org/x/image/draw.
func (t Affine) Aff3() f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
}

// LocalFrame maps o's local space, where (0,0) is the cap's top-left and
// (pw,ph) its bottom-right, into canvas pixels. The frame is centred on o,
// rotated and then flipped about that centre; the order matters because
// rotation and flipping do not commute.
func LocalFrame(o Overlay, w, h, capAspect float64) Affine {
	pw, ph := PixelSize(o, w, capAspect)
	cx, cy := Center(o, w, h)
	fx, fy := 1.0, 1.0
	if o.FlipX {
		fx = -1
	}
	if o.FlipY {
		fy = -1
	}
	return Translation(cx, cy).
		Mul(Rotation(o.Rotation * math.Pi / 180)).
		Mul(Scale(fx, fy)).
		Mul(Translation(-pw/2, -ph/2))
}

// Placement maps cap asset pixels (capW×capH) onto the canvas for o.
func Placement(o Overlay, w, h, capW, capH float64) Affine {
	pw, ph := PixelSize(o, w, capW/capH)
	return LocalFrame(o, w, h, capW/capH).Mul(Scale(pw/capW, ph/capH))
}
