package notify

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport fires when a composition is written to disk.
	EventExport Event = "export"
	// EventPublish fires when a composition is posted to the feed.
	EventPublish Event = "publish"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventExport:  {Template: "Exported %s"},
			EventPublish: {Template: "Published %s"},
			EventCopy:    {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences overlays CAPSTAYSON_NOTIFY_* variables read through
// getenv onto the defaults. A nil getenv uses os.Getenv.
func LoadPreferences(getenv func(string) string) Preferences {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("CAPSTAYSON_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for key, event := range map[string]Event{
		"CAPSTAYSON_NOTIFY_EXPORT_TEXT":  EventExport,
		"CAPSTAYSON_NOTIFY_PUBLISH_TEXT": EventPublish,
		"CAPSTAYSON_NOTIFY_COPY_TEXT":    EventCopy,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Events[event] = EventPreference{Template: v}
		}
	}
	return prefs
}

// Sender delivers a formatted notification.
type Sender func(title, body string, opts platform.Options) error

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger routes delivery failures to l.
func WithLogger(l *zap.Logger) Option { return func(n *Notifier) { n.log = l } }

// WithSender replaces platform.Notify.
func WithSender(s Sender) Option { return func(n *Notifier) { n.send = s } }

// Notifier sends OS-level notifications for enabled events. A nil Notifier
// is valid and sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     *zap.Logger
	send    Sender
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences, opts ...Option) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	n := &Notifier{
		prefs:   cloned,
		enabled: make(map[Event]bool),
		log:     zap.NewNop(),
		send:    platform.Notify,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Export reports a written file. When img is non-nil a thumbnail of it is
// attached; otherwise the file itself is used as the icon if it exists.
func (n *Notifier) Export(path string, img image.Image) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if detail == "-" {
		detail = "to stdout"
	} else if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil && img == nil {
			opts.IconPath = abs
		}
	}
	if img != nil {
		if preview, cleanup, err := createPreview(img); err != nil {
			n.log.Warn("notification preview", zap.Error(err))
		} else {
			defer cleanup()
			opts.IconPath = preview
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Publish reports a post added to the feed.
func (n *Notifier) Publish(url string) {
	if !n.enabledFor(EventPublish) {
		return
	}
	if strings.TrimSpace(url) == "" {
		url = "to the feed"
	}
	n.dispatch(EventPublish, url, platform.Options{})
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Warn("notification failed", zap.String("event", string(event)), zap.Error(err))
	}
}

func createPreview(img image.Image) (string, func(), error) {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "capstayson-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
