package overlay

// Canvas describes the surface pointer events are interpreted against.
type Canvas struct {
	W, H      float64
	CapAspect float64
}

// DragPhase tags the state of a DragController.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragActive
)

func (p DragPhase) String() string {
	switch p {
	case DragActive:
		return "dragging"
	default:
		return "idle"
	}
}

// dragState is either idleState or draggingState. Only the dragging state
// carries an offset, so a move while idle has nothing to apply.
type dragState interface{ phase() DragPhase }

type idleState struct{}

func (idleState) phase() DragPhase { return DragIdle }

type draggingState struct {
	id ID
	// offset is the pointer position minus the overlay centre at press time,
	// in canvas pixels.
	dx, dy float64
}

func (draggingState) phase() DragPhase { return DragActive }

// DragController turns press, move and release into position updates of a
// single overlay.
type DragController struct {
	state dragState
}

// NewDragController returns an idle controller.
func NewDragController() *DragController {
	return &DragController{state: idleState{}}
}

// Phase reports whether a drag is in progress.
func (c *DragController) Phase() DragPhase {
	if c.state == nil {
		return DragIdle
	}
	return c.state.phase()
}

// Target returns the overlay being dragged.
func (c *DragController) Target() (ID, bool) {
	if st, ok := c.state.(draggingState); ok {
		return st.id, true
	}
	return "", false
}

// PointerDown hit tests (px, py). On a hit the overlay is selected and a drag
// begins; on a miss nothing changes. It reports whether an overlay was hit.
func (c *DragController) PointerDown(m *Model, cv Canvas, px, py float64) bool {
	id, ok := HitTest(px, py, m.overlays, cv.CapAspect, cv.W, cv.H)
	if !ok {
		c.state = idleState{}
		return false
	}
	m.Select(id)
	o, _ := m.Get(id)
	cx, cy := Center(o, cv.W, cv.H)
	c.state = draggingState{id: id, dx: px - cx, dy: py - cy}
	return true
}

// PointerMove moves the dragged overlay so it keeps its press-time offset
// from the pointer. While idle it does nothing, not even hit testing. It
// reports whether the model changed.
func (c *DragController) PointerMove(m *Model, cv Canvas, px, py float64) bool {
	st, ok := c.state.(draggingState)
	if !ok || cv.W == 0 || cv.H == 0 {
		return false
	}
	x := (px - st.dx) / cv.W * 100
	y := (py - st.dy) / cv.H * 100
	return m.Update(st.id, Fields{X: Float(x), Y: Float(y)})
}

// PointerUp ends any drag.
func (c *DragController) PointerUp() { c.state = idleState{} }

// PointerLeave ends any drag; leaving the canvas is treated as a release.
func (c *DragController) PointerLeave() { c.state = idleState{} }
