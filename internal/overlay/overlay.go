// Package overlay holds the in-memory model of cap overlays placed on a photo:
// their placement math, the ordered collection with its selection, hit testing
// and the pointer drag state machine.
package overlay

import "math"

// ID identifies an overlay for its whole lifetime.
type ID string

// Valid ranges for overlay placement fields.
const (
	MinPosition = 0.0
	MaxPosition = 100.0
	MinSize     = 10.0
	MaxSize     = 80.0
	MinRotation = -180.0
	MaxRotation = 180.0

	// duplicateOffset is how far a duplicate is shifted from its source.
	duplicateOffset = 10.0
	// duplicateMax caps each axis of a duplicate's shifted position.
	duplicateMax = 90.0
)

// Point is a position expressed in percent of the canvas width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Overlay is one placed instance of the cap asset.
type Overlay struct {
	ID       ID      `json:"id"`
	Position Point   `json:"position"`
	Size     float64 `json:"size"`
	Rotation float64 `json:"rotation"`
	FlipX    bool    `json:"flipX"`
	FlipY    bool    `json:"flipY"`
}

// Fields is a partial update. Nil fields are left untouched.
type Fields struct {
	X        *float64
	Y        *float64
	Size     *float64
	Rotation *float64
	FlipX    *bool
	FlipY    *bool
}

// Float returns a pointer to v, for building Fields literals.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building Fields literals.
func Bool(v bool) *bool { return &v }

// DefaultPlacement is where the first cap of a new composite sits and what
// Reset restores.
func DefaultPlacement() Overlay {
	return Overlay{Position: Point{X: 50, Y: 30}, Size: 40}
}

// AddedPlacement is where Add places new caps, below the default one so the
// two do not coincide.
func AddedPlacement() Overlay {
	return Overlay{Position: Point{X: 50, Y: 50}, Size: 40}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPosition limits a percentage coordinate to [0,100].
func ClampPosition(v float64) float64 { return clamp(v, MinPosition, MaxPosition) }

// ClampSize limits a size to [10,80] percent of the canvas width.
func ClampSize(v float64) float64 { return clamp(v, MinSize, MaxSize) }

// ClampRotation limits a rotation to [-180,180] degrees.
func ClampRotation(v float64) float64 { return clamp(v, MinRotation, MaxRotation) }

// apply merges f into o, clamping every provided field.
func (o Overlay) apply(f Fields) Overlay {
	if f.X != nil {
		o.Position.X = ClampPosition(*f.X)
	}
	if f.Y != nil {
		o.Position.Y = ClampPosition(*f.Y)
	}
	if f.Size != nil {
		o.Size = ClampSize(*f.Size)
	}
	if f.Rotation != nil {
		o.Rotation = ClampRotation(*f.Rotation)
	}
	if f.FlipX != nil {
		o.FlipX = *f.FlipX
	}
	if f.FlipY != nil {
		o.FlipY = *f.FlipY
	}
	return o
}

// withPlacement copies everything but the id from p.
func (o Overlay) withPlacement(p Overlay) Overlay {
	id := o.ID
	o = p
	o.ID = id
	return o
}
