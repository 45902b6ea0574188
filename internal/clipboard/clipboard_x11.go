//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// errTargetUnavailable is returned when the selection owner refuses a
// conversion.
var errTargetUnavailable = errors.New("clipboard target unavailable")

// x11Atoms are the atoms the backend needs, interned once per connection.
type x11Atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	transfer  xproto.Atom
}

// offer is what the backend currently owns the CLIPBOARD selection for.
// Only one of text or a PNG is held at a time.
type offer struct {
	png  bool
	data []byte
}

// x11Clipboard owns the CLIPBOARD selection through an unmapped window and
// answers conversion requests from a goroutine.
type x11Clipboard struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  x11Atoms

	mu      sync.RWMutex
	current offer
}

// newBackend talks to the X server directly; used when the cgo clipboard
// is not compiled in.
func newBackend() (backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	atoms, err := internX11Atoms(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	mask := []uint32{xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, mask).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create selection window: %w", err)
	}
	c := &x11Clipboard{conn: conn, window: window, atoms: atoms}
	go c.serve()
	return c, nil
}

func internX11Atoms(conn *xgb.Conn) (x11Atoms, error) {
	var a x11Atoms
	for _, want := range []struct {
		name string
		dst  *xproto.Atom
	}{
		{"CLIPBOARD", &a.clipboard},
		{"TARGETS", &a.targets},
		{"UTF8_STRING", &a.utf8},
		{"text/plain;charset=utf-8", &a.textPlain},
		{"image/png", &a.png},
		{"CAPSTAYSON_TRANSFER", &a.transfer},
	} {
		reply, err := xproto.InternAtom(conn, false, uint16(len(want.name)), want.name).Reply()
		if err != nil {
			return x11Atoms{}, fmt.Errorf("intern %s: %w", want.name, err)
		}
		*want.dst = reply.Atom
	}
	return a, nil
}

func (c *x11Clipboard) writeText(data []byte) error { return c.own(offer{data: data}) }

func (c *x11Clipboard) writePNG(data []byte) error { return c.own(offer{png: true, data: data}) }

func (c *x11Clipboard) own(o offer) error {
	o.data = append([]byte(nil), o.data...)
	c.mu.Lock()
	c.current = o
	c.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(c.conn, c.window, c.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (c *x11Clipboard) readPNG() ([]byte, error) {
	data, err := c.fetch(c.atoms.png)
	if errors.Is(err, errTargetUnavailable) {
		return nil, ErrNoImage
	}
	return data, err
}

// readText asks for UTF8_STRING first and falls back to the legacy STRING
// target.
func (c *x11Clipboard) readText() ([]byte, error) {
	var err error
	for _, target := range []xproto.Atom{c.atoms.utf8, xproto.AtomString} {
		var data []byte
		if data, err = c.fetch(target); err == nil {
			return data, nil
		}
	}
	if errors.Is(err, errTargetUnavailable) {
		return nil, ErrNoText
	}
	return nil, err
}

func (c *x11Clipboard) serve() {
	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			c.answer(e)
		case xproto.SelectionClearEvent:
			c.mu.Lock()
			c.current = offer{}
			c.mu.Unlock()
		}
	}
}

// answer converts the held offer to the requested target and notifies the
// requestor. Unsupported targets are refused with a None property.
func (c *x11Clipboard) answer(e xproto.SelectionRequestEvent) {
	c.mu.RLock()
	held := c.current
	c.mu.RUnlock()

	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	hasText := !held.png && len(held.data) > 0
	hasPNG := held.png && len(held.data) > 0

	switch {
	case e.Target == c.atoms.targets:
		list := []xproto.Atom{c.atoms.targets}
		if hasText {
			list = append(list, c.atoms.utf8, xproto.AtomString, c.atoms.textPlain)
		}
		if hasPNG {
			list = append(list, c.atoms.png)
		}
		buf := make([]byte, 4*len(list))
		for i, atom := range list {
			xgb.Put32(buf[4*i:], uint32(atom))
		}
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(list)), buf)
	case hasText && (e.Target == c.atoms.utf8 || e.Target == xproto.AtomString || e.Target == c.atoms.textPlain):
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property,
			c.atoms.utf8, 8, uint32(len(held.data)), held.data)
	case hasPNG && e.Target == c.atoms.png:
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property,
			c.atoms.png, 8, uint32(len(held.data)), held.data)
	default:
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(c.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// fetch converts the CLIPBOARD selection to target on a short-lived
// connection, so the serving goroutine keeps sole use of the owner's
// event queue.
func (c *x11Clipboard) fetch(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.DeletePropertyChecked(conn, window, c.atoms.transfer).Check(); err != nil {
		return nil, err
	}
	err = xproto.ConvertSelectionChecked(conn, window, c.atoms.clipboard, target, c.atoms.transfer, xproto.TimeCurrentTime).Check()
	if err != nil {
		return nil, err
	}
	for {
		ev, xerr := conn.WaitForEvent()
		if xerr != nil {
			return nil, xerr
		}
		if ev == nil {
			return nil, errors.New("X connection closed")
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, errTargetUnavailable
		}
		if e.Property != c.atoms.transfer {
			continue
		}
		reply, err := xproto.GetProperty(conn, true, window, c.atoms.transfer, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
