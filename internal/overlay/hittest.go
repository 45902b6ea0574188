package overlay

// HitTest returns the topmost overlay whose box contains the canvas pixel
// (px, py). Overlays are tried from the end of the slice backwards so the
// visually frontmost one wins.
//
// Boxes are unrotated: rotation and flips are ignored, so a rotated cap may
// be hit slightly outside its drawn pixels or missed slightly inside them.
func HitTest(px, py float64, overlays []Overlay, capAspect, w, h float64) (ID, bool) {
	for i := len(overlays) - 1; i >= 0; i-- {
		if Bounds(overlays[i], w, h, capAspect).Contains(px, py) {
			return overlays[i].ID, true
		}
	}
	return "", false
}
