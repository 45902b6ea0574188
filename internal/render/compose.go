package render

import (
	"image"
	"image/draw"

	"github.com/example/capstayson/internal/overlay"
	xdraw "golang.org/x/image/draw"
)

// Render composites base and every overlay's copy of capImg into surface and
// returns it. The surface is reallocated when it is nil or does not match the
// base image's size. Overlays are drawn in order so later ones end up on top.
// When decorate is set the overlay with id selected gets a dashed outline.
func Render(surface *image.RGBA, base image.Image, overlays []overlay.Overlay, capImg image.Image, selected overlay.ID, decorate bool) *image.RGBA {
	bb := base.Bounds()
	rect := image.Rect(0, 0, bb.Dx(), bb.Dy())
	if surface == nil || surface.Bounds() != rect {
		surface = image.NewRGBA(rect)
	}
	draw.Draw(surface, rect, image.Transparent, image.Point{}, draw.Src)
	draw.Draw(surface, rect, base, bb.Min, draw.Over)

	cb := capImg.Bounds()
	if cb.Empty() {
		return surface
	}
	w, h := float64(rect.Dx()), float64(rect.Dy())
	capW, capH := float64(cb.Dx()), float64(cb.Dy())
	origin := overlay.Translation(-float64(cb.Min.X), -float64(cb.Min.Y))
	for _, o := range overlays {
		m := overlay.Placement(o, w, h, capW, capH).Mul(origin)
		xdraw.BiLinear.Transform(surface, m.Aff3(), capImg, cb, xdraw.Over, nil)
		if decorate && o.ID == selected {
			outline(surface, o, w, h, capW/capH)
		}
	}
	return surface
}
