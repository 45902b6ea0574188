package editor

import (
	"context"
	"errors"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/mobile/event/key"

	"github.com/example/capstayson/internal/overlay"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Either Rune or Code is set. Shift is folded into Rune.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// Action is a named editor command bound to keyboard shortcuts.
type Action struct {
	Name string
	Help string
	Keys []KeyShortcut
	Run  func(ctx context.Context, s *Session) error
}

func runes(rs ...rune) []KeyShortcut {
	out := make([]KeyShortcut, len(rs))
	for i, r := range rs {
		out[i] = KeyShortcut{Rune: r}
	}
	return out
}

func ctrl(r rune) []KeyShortcut {
	return []KeyShortcut{{Rune: r, Modifiers: key.ModControl}}
}

func codes(cs ...key.Code) []KeyShortcut {
	out := make([]KeyShortcut, len(cs))
	for i, c := range cs {
		out[i] = KeyShortcut{Code: c}
	}
	return out
}

// selected runs fn against the selected overlay.
func selected(fn func(m *overlay.Model, o overlay.Overlay)) func(context.Context, *Session) error {
	return func(_ context.Context, s *Session) error {
		fn(s.model, s.model.Selected())
		return nil
	}
}

func nudge(dx, dy float64) func(context.Context, *Session) error {
	return selected(func(m *overlay.Model, o overlay.Overlay) { m.Nudge(o.ID, dx, dy) })
}

// Actions lists every editor command in help order.
func Actions() []Action {
	return []Action{
		{Name: "add", Help: "add a cap", Keys: runes('a'),
			Run: selected(func(m *overlay.Model, _ overlay.Overlay) { m.Add() })},
		{Name: "duplicate", Help: "duplicate the selected cap", Keys: runes('d'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) { m.Duplicate(o.ID) })},
		{Name: "delete", Help: "delete the selected cap", Keys: codes(key.CodeDeleteForward, key.CodeDeleteBackspace),
			Run: func(_ context.Context, s *Session) error {
				if !s.model.Delete(s.model.SelectedID()) {
					s.setMessage("the last cap cannot be deleted")
				}
				return nil
			}},
		{Name: "reset", Help: "reset the selected cap", Keys: runes('0'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) { m.Reset(o.ID) })},
		{Name: "grow", Help: "size +1", Keys: runes('+', '='),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{Size: overlay.Float(o.Size + 1)})
			})},
		{Name: "shrink", Help: "size -1", Keys: runes('-'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{Size: overlay.Float(o.Size - 1)})
			})},
		{Name: "rotate", Help: "rotate 5° clockwise", Keys: runes('r'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{Rotation: overlay.Float(o.Rotation + 5)})
			})},
		{Name: "rotate-back", Help: "rotate 5° anticlockwise", Keys: runes('R'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{Rotation: overlay.Float(o.Rotation - 5)})
			})},
		{Name: "flip-x", Help: "mirror horizontally", Keys: runes('h'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{FlipX: overlay.Bool(!o.FlipX)})
			})},
		{Name: "flip-y", Help: "mirror vertically", Keys: runes('v'),
			Run: selected(func(m *overlay.Model, o overlay.Overlay) {
				m.Update(o.ID, overlay.Fields{FlipY: overlay.Bool(!o.FlipY)})
			})},
		{Name: "left", Help: "move left", Keys: codes(key.CodeLeftArrow), Run: nudge(-1, 0)},
		{Name: "right", Help: "move right", Keys: codes(key.CodeRightArrow), Run: nudge(1, 0)},
		{Name: "up", Help: "move up", Keys: codes(key.CodeUpArrow), Run: nudge(0, -1)},
		{Name: "down", Help: "move down", Keys: codes(key.CodeDownArrow), Run: nudge(0, 1)},
		{Name: "next", Help: "select the next cap", Keys: codes(key.CodeTab),
			Run: selected(func(m *overlay.Model, _ overlay.Overlay) { m.SelectNext() })},
		{Name: "save", Help: "export PNG to the output path", Keys: ctrl('s'),
			Run: func(_ context.Context, s *Session) error { return s.Save() }},
		{Name: "copy", Help: "export PNG to the clipboard", Keys: ctrl('c'),
			Run: func(_ context.Context, s *Session) error { return s.Copy() }},
		{Name: "publish", Help: "export and publish to the feed", Keys: ctrl('p'),
			Run: func(ctx context.Context, s *Session) error {
				_, err := s.Publish(ctx)
				return err
			}},
		{Name: "open", Help: "load the photo from the clipboard", Keys: ctrl('o'),
			Run: func(_ context.Context, s *Session) error { return s.Paste() }},
		{Name: "quit", Help: "close the editor", Keys: append(runes('q'), codes(key.CodeEscape)...),
			Run: func(_ context.Context, s *Session) error {
				s.closed = true
				return nil
			}},
	}
}

// Keymap resolves key events to actions.
type Keymap struct {
	actions map[string]Action
	keys    map[KeyShortcut]string
}

// NewKeymap indexes actions by name and shortcut.
func NewKeymap(actions []Action) *Keymap {
	km := &Keymap{actions: map[string]Action{}, keys: map[KeyShortcut]string{}}
	for _, a := range actions {
		km.actions[a.Name] = a
		for _, k := range a.Keys {
			km.keys[k] = a.Name
		}
	}
	return km
}

// ShortcutFor normalises a key press. Control shortcuts match letters case
// insensitively; other runes keep their case so r and R differ.
func ShortcutFor(e key.Event) KeyShortcut {
	mods := e.Modifiers &^ key.ModShift
	r := e.Rune
	if mods&key.ModControl != 0 {
		r = unicode.ToLower(r)
		// Some drivers report control letters as ASCII control codes.
		if r >= 1 && r <= 26 {
			r = 'a' + r - 1
		}
	}
	if r < 0 {
		r = 0
	}
	return KeyShortcut{Rune: r, Code: e.Code, Modifiers: mods}
}

// Lookup returns the action bound to ks. Runes take precedence over codes.
func (km *Keymap) Lookup(ks KeyShortcut) (string, bool) {
	if ks.Rune > 0 && !unicode.IsControl(ks.Rune) {
		if name, ok := km.keys[KeyShortcut{Rune: ks.Rune, Modifiers: ks.Modifiers}]; ok {
			return name, true
		}
	}
	name, ok := km.keys[KeyShortcut{Code: ks.Code, Modifiers: ks.Modifiers}]
	return name, ok
}

// ErrUnknownAction is returned by Do for names that are not registered.
var ErrUnknownAction = errors.New("editor: unknown action")

// Do runs the named action against s. Failures are also shown as a
// message so the editor keeps working.
func (km *Keymap) Do(ctx context.Context, s *Session, name string) error {
	a, ok := km.actions[name]
	if !ok {
		return ErrUnknownAction
	}
	if err := a.Run(ctx, s); err != nil {
		s.log.Warn("action failed", zap.String("action", name), zap.Error(err))
		s.setMessage("%s failed: %v", name, err)
		return err
	}
	return nil
}

// HandleKey runs the action bound to e, if any, and reports whether one ran.
func (km *Keymap) HandleKey(ctx context.Context, s *Session, e key.Event) (string, bool) {
	if e.Direction == key.DirRelease {
		return "", false
	}
	name, ok := km.Lookup(ShortcutFor(e))
	if !ok {
		return "", false
	}
	_ = km.Do(ctx, s, name)
	return name, true
}
