// Package editor binds the overlay model, render pipeline and drag
// controller into an interactive editing session and drives it from a
// shiny window.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/capstayson/internal/feed"
	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/notify"
	"github.com/example/capstayson/internal/overlay"
	"github.com/example/capstayson/internal/render"
)

// messageDuration is how long a transient message stays on screen.
const messageDuration = 2 * time.Second

var (
	// ErrNoPublisher is returned by the publish action when no feed is configured.
	ErrNoPublisher = errors.New("editor: no feed configured")
	// ErrNoClipboard is returned by copy and open when no clipboard is wired.
	ErrNoClipboard = errors.New("editor: clipboard unavailable")
)

// Publisher accepts finished composites. *feed.Store satisfies it.
type Publisher interface {
	Publish(ctx context.Context, req feed.PublishRequest) (feed.Post, error)
}

// Clipboard moves PNG bytes and photos through the system clipboard.
type Clipboard struct {
	WritePNG  func([]byte) error
	WriteText func(string) error
	ReadImage func() (*image.RGBA, error)
}

// Session is one editing session over a single photo. It is not safe for
// concurrent use; the window calls it from its event goroutine only.
type Session struct {
	model    *overlay.Model
	pipeline *render.Pipeline
	drag     *overlay.DragController
	display  overlay.Rect
	loader   imageio.Loader
	loadErr  error

	output    string
	handle    string
	site      string
	publisher Publisher
	clipboard Clipboard
	notifier  *notify.Notifier
	writeFile func(path string, data []byte) error
	log       *zap.Logger
	now       func() time.Time

	message      string
	messageUntil time.Time
	closed       bool
	onChange     func()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOutput sets the path the save action writes to. "-" writes to stdout.
func WithOutput(path string) SessionOption { return func(s *Session) { s.output = path } }

// WithPublisher enables the publish action. handle is attached to every
// post and site is used to build links to it.
func WithPublisher(p Publisher, handle, site string) SessionOption {
	return func(s *Session) {
		s.publisher = p
		s.handle = handle
		s.site = strings.TrimRight(site, "/")
	}
}

// WithClipboard enables the copy and open actions.
func WithClipboard(c Clipboard) SessionOption { return func(s *Session) { s.clipboard = c } }

// WithNotifier sends desktop notifications after save, copy and publish.
func WithNotifier(n *notify.Notifier) SessionOption { return func(s *Session) { s.notifier = n } }

// WithSessionLogger sets the logger.
func WithSessionLogger(l *zap.Logger) SessionOption { return func(s *Session) { s.log = l } }

// WithFileWriter replaces the function used by the save action.
func WithFileWriter(fn func(path string, data []byte) error) SessionOption {
	return func(s *Session) { s.writeFile = fn }
}

// WithSessionClock replaces time.Now for message expiry.
func WithSessionClock(now func() time.Time) SessionOption { return func(s *Session) { s.now = now } }

// WithModel uses m instead of a fresh model.
func WithModel(m *overlay.Model) SessionOption { return func(s *Session) { s.model = m } }

// NewSession starts a session over base with the cap artwork capImg. base
// may be nil while a photo is still loading.
func NewSession(base, capImg image.Image, opts ...SessionOption) *Session {
	s := &Session{
		output: "capstayson.png",
		log:    zap.NewNop(),
		now:    time.Now,
		drag:   overlay.NewDragController(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.model == nil {
		s.model = overlay.NewModel()
	}
	if s.writeFile == nil {
		s.writeFile = func(path string, data []byte) error { return imageio.WriteFile(path, data, nil) }
	}
	s.pipeline = render.NewPipeline(s.model, render.WithLogger(s.log), render.WithCap(capImg))
	if base != nil {
		s.pipeline.SetBase(base)
	}
	s.model.SetOnChange(s.changed)
	return s
}

func (s *Session) changed() {
	if _, err := s.pipeline.Render(true); err != nil && !errors.Is(err, render.ErrNotReady) {
		s.log.Warn("render", zap.Error(err))
	}
	if s.onChange != nil {
		s.onChange()
	}
}

// SetOnChange registers fn to run after every re-render triggered by a
// model mutation or photo change.
func (s *Session) SetOnChange(fn func()) { s.onChange = fn }

// Model returns the overlay model.
func (s *Session) Model() *overlay.Model { return s.model }

// Pipeline returns the render pipeline.
func (s *Session) Pipeline() *render.Pipeline { return s.pipeline }

// Output returns the save path.
func (s *Session) Output() string { return s.output }

// Closed reports whether the quit action ran.
func (s *Session) Closed() bool { return s.closed }

// SetPhoto replaces the base photo. Overlays keep their percentage
// placement and so follow the new photo's dimensions. A load still in
// flight is superseded and its result will be ignored.
func (s *Session) SetPhoto(img image.Image) {
	s.loader.Cancel()
	s.installPhoto(img)
}

func (s *Session) installPhoto(img image.Image) {
	s.loadErr = nil
	s.pipeline.SetBase(img)
	s.drag.PointerLeave()
	s.changed()
}

// LoadPhoto decodes r in the background and hands the result to done,
// which should pass it back to ApplyLoad on the event goroutine. It
// returns the generation of the new load.
func (s *Session) LoadPhoto(r io.Reader, done func(imageio.Result)) uint64 {
	return s.loader.Start(r, done)
}

// CancelLoad makes any pending load stale.
func (s *Session) CancelLoad() { s.loader.Cancel() }

// ApplyLoad installs a finished asynchronous load. Results from stale
// generations are ignored and false is returned. A failed load is kept
// and reported by LoadError until a photo is installed.
func (s *Session) ApplyLoad(res imageio.Result) bool {
	if !s.loader.IsCurrent(res.Gen) {
		return false
	}
	if res.Err != nil {
		s.log.Warn("load photo", zap.Error(res.Err))
		s.loadErr = res.Err
		s.setMessage("could not load photo")
		return true
	}
	s.installPhoto(res.Image)
	return true
}

// LoadError returns the error of the last failed load, or nil.
func (s *Session) LoadError() error { return s.loadErr }

// Surface renders the decorated preview if needed and returns it.
func (s *Session) Surface() (*image.RGBA, error) {
	if surf := s.pipeline.Surface(); surf != nil {
		return surf, nil
	}
	return s.pipeline.Render(true)
}

// SetDisplay records where the canvas is drawn in view coordinates.
func (s *Session) SetDisplay(r image.Rectangle) {
	s.display = overlay.Rect{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}

// Display returns the canvas rectangle in view coordinates.
func (s *Session) Display() overlay.Rect { return s.display }

// toCanvas maps a view-space point to canvas pixels.
func (s *Session) toCanvas(x, y float64) (overlay.Canvas, float64, float64, bool) {
	cv, err := s.pipeline.Geometry()
	if err != nil {
		return overlay.Canvas{}, 0, 0, false
	}
	px, py := overlay.PointerToCanvas(x, y, s.display, cv.W, cv.H)
	return cv, px, py, true
}

// PointerDown starts a drag when (x, y) in view space lands on an overlay.
func (s *Session) PointerDown(x, y float64) bool {
	cv, px, py, ok := s.toCanvas(x, y)
	if !ok {
		return false
	}
	return s.drag.PointerDown(s.model, cv, px, py)
}

// PointerMove drags the active overlay. It is a no-op while idle.
func (s *Session) PointerMove(x, y float64) bool {
	if s.drag.Phase() != overlay.DragActive {
		return false
	}
	cv, px, py, ok := s.toCanvas(x, y)
	if !ok {
		return false
	}
	return s.drag.PointerMove(s.model, cv, px, py)
}

// PointerUp ends any drag.
func (s *Session) PointerUp() { s.drag.PointerUp() }

// PointerLeave ends any drag when the pointer leaves the canvas.
func (s *Session) PointerLeave() { s.drag.PointerLeave() }

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool { return s.drag.Phase() == overlay.DragActive }

func (s *Session) setMessage(format string, args ...any) {
	s.message = fmt.Sprintf(format, args...)
	s.messageUntil = s.now().Add(messageDuration)
	s.log.Info(s.message)
}

// Message returns the current transient message, if one has not expired.
func (s *Session) Message() (string, bool) {
	if s.message == "" || !s.now().Before(s.messageUntil) {
		return "", false
	}
	return s.message, true
}

// DismissMessage hides the current message.
func (s *Session) DismissMessage() { s.messageUntil = time.Time{} }

// Status summarises the selected overlay for the status bar.
func (s *Session) Status() string {
	o := s.model.Selected()
	idx := 0
	for i, other := range s.model.Overlays() {
		if other.ID == o.ID {
			idx = i + 1
			break
		}
	}
	flips := ""
	if o.FlipX {
		flips += " flipX"
	}
	if o.FlipY {
		flips += " flipY"
	}
	return fmt.Sprintf("cap %d/%d  x %.0f%%  y %.0f%%  size %.0f%%  rot %.0f°%s",
		idx, s.model.Len(), o.Position.X, o.Position.Y, o.Size, o.Rotation, flips)
}

// Save exports the composite to the output path.
func (s *Session) Save() error {
	data, err := s.pipeline.ExportPNG()
	if err != nil {
		return err
	}
	if err := s.writeFile(s.output, data); err != nil {
		return err
	}
	s.notifier.Export(s.output, nil)
	s.setMessage("saved %s", s.output)
	return nil
}

// Copy exports the composite to the clipboard.
func (s *Session) Copy() error {
	if s.clipboard.WritePNG == nil {
		return ErrNoClipboard
	}
	data, err := s.pipeline.ExportPNG()
	if err != nil {
		return err
	}
	if err := s.clipboard.WritePNG(data); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	s.notifier.Copy("image")
	s.setMessage("image copied to clipboard")
	return nil
}

// Publish exports the composite and posts it to the feed. The link to the
// new post is copied to the clipboard when one is available.
func (s *Session) Publish(ctx context.Context) (feed.Post, error) {
	if s.publisher == nil {
		return feed.Post{}, ErrNoPublisher
	}
	data, err := s.pipeline.ExportPNG()
	if err != nil {
		return feed.Post{}, err
	}
	post, err := s.publisher.Publish(ctx, feed.PublishRequest{
		PNG:    data,
		Caps:   s.model.Len(),
		Handle: s.handle,
	})
	if err != nil {
		return feed.Post{}, fmt.Errorf("publish: %w", err)
	}
	link := post.URL
	if s.site != "" {
		link = s.site + "/post/" + post.ID
	}
	if s.clipboard.WriteText != nil {
		if err := s.clipboard.WriteText(link); err != nil {
			s.log.Debug("copy post link", zap.Error(err))
		}
	}
	s.notifier.Publish(link)
	s.setMessage("published %s", link)
	return post, nil
}

// Paste replaces the photo with the clipboard image.
func (s *Session) Paste() error {
	if s.clipboard.ReadImage == nil {
		return ErrNoClipboard
	}
	img, err := s.clipboard.ReadImage()
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	s.SetPhoto(img)
	s.setMessage("photo loaded from clipboard")
	return nil
}
