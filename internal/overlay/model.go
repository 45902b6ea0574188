package overlay

import "github.com/google/uuid"

// Model is the ordered overlay collection of one composite together with its
// selection. Order is stacking order: later overlays render on top and are
// hit first. A Model always holds at least one overlay and its selection
// always refers to a member.
//
// Model is not safe for concurrent use; the editor mutates it from its event
// loop only.
type Model struct {
	overlays []Overlay
	selected ID
	newID    func() ID
	onChange func()
}

// Option configures a Model during creation.
type Option func(*Model)

// WithIDGenerator replaces the UUID generator used for new overlays.
func WithIDGenerator(fn func() ID) Option { return func(m *Model) { m.newID = fn } }

// WithOnChange registers a callback run after every mutation.
func WithOnChange(fn func()) Option { return func(m *Model) { m.onChange = fn } }

// NewModel returns a model holding one selected overlay at the default
// placement.
func NewModel(opts ...Option) *Model {
	m := &Model{newID: func() ID { return ID(uuid.NewString()) }}
	for _, o := range opts {
		o(m)
	}
	first := DefaultPlacement()
	first.ID = m.newID()
	m.overlays = []Overlay{first}
	m.selected = first.ID
	return m
}

// SetOnChange replaces the change callback.
func (m *Model) SetOnChange(fn func()) { m.onChange = fn }

func (m *Model) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}

func (m *Model) index(id ID) int {
	for i := range m.overlays {
		if m.overlays[i].ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of overlays.
func (m *Model) Len() int { return len(m.overlays) }

// Overlays returns a copy of the overlays in stacking order.
func (m *Model) Overlays() []Overlay {
	out := make([]Overlay, len(m.overlays))
	copy(out, m.overlays)
	return out
}

// Get returns the overlay with the given id.
func (m *Model) Get(id ID) (Overlay, bool) {
	if i := m.index(id); i >= 0 {
		return m.overlays[i], true
	}
	return Overlay{}, false
}

// SelectedID returns the id of the selected overlay.
func (m *Model) SelectedID() ID { return m.selected }

// Selected returns the selected overlay.
func (m *Model) Selected() Overlay {
	o, _ := m.Get(m.selected)
	return o
}

// Add appends an overlay at the added placement and selects it.
func (m *Model) Add() ID {
	o := AddedPlacement()
	o.ID = m.newID()
	m.overlays = append(m.overlays, o)
	m.selected = o.ID
	m.changed()
	return o.ID
}

// Duplicate copies the overlay id, shifts the copy by ten points on each
// axis (capped at 90), appends and selects it. It returns false when id is
// unknown.
func (m *Model) Duplicate(id ID) (ID, bool) {
	i := m.index(id)
	if i < 0 {
		return "", false
	}
	o := m.overlays[i]
	o.ID = m.newID()
	o.Position.X = ClampPosition(min(o.Position.X+duplicateOffset, duplicateMax))
	o.Position.Y = ClampPosition(min(o.Position.Y+duplicateOffset, duplicateMax))
	m.overlays = append(m.overlays, o)
	m.selected = o.ID
	m.changed()
	return o.ID, true
}

// Delete removes the overlay id. Removing the last remaining overlay or an
// unknown id is refused and reported as false. When the selected overlay is
// removed the first remaining overlay becomes selected.
func (m *Model) Delete(id ID) bool {
	if len(m.overlays) <= 1 {
		return false
	}
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.overlays = append(m.overlays[:i:i], m.overlays[i+1:]...)
	if m.selected == id {
		m.selected = m.overlays[0].ID
	}
	m.changed()
	return true
}

// Update merges f into the overlay id, clamping each field.
func (m *Model) Update(id ID, f Fields) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.overlays[i] = m.overlays[i].apply(f)
	m.changed()
	return true
}

// Select makes id the selected overlay. Unknown ids are ignored.
func (m *Model) Select(id ID) bool {
	if m.index(id) < 0 {
		return false
	}
	m.selected = id
	m.changed()
	return true
}

// Reset restores the default placement of id while keeping its id.
func (m *Model) Reset(id ID) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.overlays[i] = m.overlays[i].withPlacement(DefaultPlacement())
	m.changed()
	return true
}

// SelectNext moves the selection to the next overlay in stacking order,
// wrapping around.
func (m *Model) SelectNext() ID {
	i := m.index(m.selected)
	next := m.overlays[(i+1)%len(m.overlays)].ID
	m.Select(next)
	return next
}

// Nudge moves id by (dx, dy) percentage points.
func (m *Model) Nudge(id ID, dx, dy float64) bool {
	o, ok := m.Get(id)
	if !ok {
		return false
	}
	return m.Update(id, Fields{X: Float(o.Position.X + dx), Y: Float(o.Position.Y + dy)})
}
