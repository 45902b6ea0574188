package editor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/platform"
	"github.com/example/capstayson/internal/theme"
)

const (
	statusHeight = 24
	canvasMargin = 8
	checkerSize  = 8

	// frameDropThreshold is how many consecutive frames may be cancelled
	// before one is allowed to finish.
	frameDropThreshold = 10

	actionTimeout = 30 * time.Second
	statusHint    = "a add  d dup  r/R rotate  h/v flip  ^S save  ^C copy  ^P publish  q quit"
)

var (
	messageFaceOnce sync.Once
	messageFace     font.Face
)

// loadMessageFace returns the large face used for transient messages,
// falling back to the fixed bitmap face if the TTF cannot be parsed.
func loadMessageFace() font.Face {
	messageFaceOnce.Do(func() {
		messageFace = basicfont.Face7x13
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 28, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return
		}
		messageFace = face
	})
	return messageFace
}

// Window shows a Session in a native window.
type Window struct {
	session *Session
	keymap  *Keymap
	theme   *theme.Theme
	log     *zap.Logger
	title   string
	maxW    int
	maxH    int
	photo   io.Reader
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithTheme sets the chrome colours.
func WithTheme(t *theme.Theme) WindowOption { return func(w *Window) { w.theme = t } }

// WithWindowLogger sets the logger.
func WithWindowLogger(l *zap.Logger) WindowOption { return func(w *Window) { w.log = l } }

// WithTitle sets the window title.
func WithTitle(title string) WindowOption { return func(w *Window) { w.title = title } }

// WithMaxSize bounds the initial window size.
func WithMaxSize(width, height int) WindowOption {
	return func(w *Window) { w.maxW, w.maxH = width, height }
}

// WithPhotoReader decodes the photo from r after the window opens.
func WithPhotoReader(r io.Reader) WindowOption { return func(w *Window) { w.photo = r } }

// NewWindow prepares a window for s. Nothing is shown until Run.
func NewWindow(s *Session, opts ...WindowOption) *Window {
	w := &Window{
		session: s,
		keymap:  NewKeymap(Actions()),
		theme:   theme.Default(),
		log:     zap.NewNop(),
		title:   platform.AppName,
		maxW:    1024,
		maxH:    768,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the UI loop using shiny's driver. It returns when the
// window is closed.
func (w *Window) Run() { driver.Main(w.Main) }

type loadEvent struct{ res imageio.Result }

// frame is an immutable snapshot handed to the painter goroutine.
type frame struct {
	width, height int
	canvas        image.Rectangle
	photo         *image.RGBA
	status        string
	message       string
	theme         *theme.Theme
}

// initialSize picks a window size that fits a photo of size p within the
// configured maximum.
func (w *Window) initialSize(p image.Point) (int, int) {
	if p.X <= 0 || p.Y <= 0 {
		return w.maxW, w.maxH + statusHeight
	}
	maxArea := image.Rect(0, 0, w.maxW-2*canvasMargin, w.maxH-2*canvasMargin)
	r := fitRect(p, maxArea)
	return r.Dx() + 2*canvasMargin, r.Dy() + 2*canvasMargin + statusHeight
}

// Main runs the event loop on s.
func (w *Window) Main(s screen.Screen) {
	var photoSize image.Point
	if base := w.session.Pipeline().Base(); base != nil {
		photoSize = base.Bounds().Size()
	}
	width, height := w.initialSize(photoSize)
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: w.title})
	if err != nil {
		w.log.Error("new window", zap.Error(err))
		return
	}
	defer win.Release()

	updateCh := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-updateCh:
				win.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	requestPaint := func() {
		select {
		case updateCh <- struct{}{}:
		default:
		}
	}
	w.session.SetOnChange(requestPaint)

	var (
		paintMu     sync.Mutex
		paintCancel context.CancelFunc
		dropCount   int
	)
	paintCh := make(chan frame, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			w.drawFrame(ctx, s, win, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	if w.photo != nil {
		w.session.LoadPhoto(w.photo, func(res imageio.Result) { win.Send(loadEvent{res: res}) })
		defer w.session.CancelLoad()
	}

	canvas := image.Rectangle{}
	relayout := func() {
		canvas = image.Rectangle{}
		if base := w.session.Pipeline().Base(); base != nil {
			canvas = fitRect(base.Bounds().Size(), canvasArea(width, height))
		}
		w.session.SetDisplay(canvas)
	}
	relayout()

	for {
		switch e := win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			relayout()
			requestPaint()
		case loadEvent:
			if w.session.ApplyLoad(e.res) {
				relayout()
				requestPaint()
			}
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := w.snapshot(width, height, canvas)
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			if w.handleMouse(e, canvas) {
				requestPaint()
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			name, ok := w.keymap.HandleKey(ctx, w.session, e)
			cancel()
			if !ok {
				continue
			}
			if w.session.Closed() {
				return
			}
			if name == "open" {
				relayout()
			}
			requestPaint()
		}
	}
}

// handleMouse feeds a pointer event to the session and reports whether a
// repaint is needed.
func (w *Window) handleMouse(e mouse.Event, canvas image.Rectangle) bool {
	x, y := float64(e.X), float64(e.Y)
	switch {
	case e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft:
		if _, shown := w.session.Message(); shown {
			w.session.DismissMessage()
			return true
		}
		return w.session.PointerDown(x, y)
	case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
		w.session.PointerUp()
		return false
	case e.Direction == mouse.DirNone && w.session.Dragging():
		if !image.Pt(int(e.X), int(e.Y)).In(canvas) {
			w.session.PointerLeave()
			return false
		}
		return w.session.PointerMove(x, y)
	}
	return false
}

// snapshot copies everything the painter needs so it never touches
// session state.
func (w *Window) snapshot(width, height int, canvas image.Rectangle) frame {
	st := frame{width: width, height: height, canvas: canvas, theme: w.theme, status: statusHint}
	if surf, err := w.session.Surface(); err == nil {
		st.photo = image.NewRGBA(surf.Bounds())
		copy(st.photo.Pix, surf.Pix)
		st.status = w.session.Status()
	} else if lerr := w.session.LoadError(); lerr != nil {
		st.status = fmt.Sprintf("could not load photo: %v", lerr)
	} else {
		st.status = "loading photo…"
	}
	if msg, ok := w.session.Message(); ok {
		st.message = msg
	}
	return st
}

func (w *Window) drawFrame(ctx context.Context, s screen.Screen, win screen.Window, st frame) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		w.log.Warn("new buffer", zap.Error(err))
		return
	}
	defer b.Release()
	if !paintFrame(ctx, b.RGBA(), st) {
		return
	}
	win.Upload(image.Point{}, b, b.Bounds())
	win.Publish()
}

// canvasArea is the part of a width×height window available to the photo.
func canvasArea(width, height int) image.Rectangle {
	r := image.Rect(canvasMargin, canvasMargin, width-canvasMargin, height-statusHeight-canvasMargin)
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// fitRect centres a rectangle of size p inside area, scaled down to fit
// while keeping its aspect ratio. Photos smaller than area are not enlarged.
func fitRect(p image.Point, area image.Rectangle) image.Rectangle {
	if p.X <= 0 || p.Y <= 0 || area.Empty() {
		return image.Rectangle{}
	}
	zoom := 1.0
	zx := float64(area.Dx()) / float64(p.X)
	zy := float64(area.Dy()) / float64(p.Y)
	if zx < zoom {
		zoom = zx
	}
	if zy < zoom {
		zoom = zy
	}
	w := int(float64(p.X)*zoom + 0.5)
	h := int(float64(p.Y)*zoom + 0.5)
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// drawCheckerboard fills rect of dst with squares of the given colors.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

func drawBorder(dst *image.RGBA, r image.Rectangle, col color.Color, thick int) {
	u := image.NewUniform(col)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

// paintFrame draws st into dst. It returns false if ctx was cancelled
// part way through.
func paintFrame(ctx context.Context, dst *image.RGBA, st frame) bool {
	t := st.theme
	if t == nil {
		t = theme.Default()
	}
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(t.Background), image.Point{}, draw.Src)

	if st.photo != nil && !st.canvas.Empty() {
		drawCheckerboard(dst, st.canvas, checkerSize, t.CheckerLight, t.CheckerDark)
		if ctx.Err() != nil {
			return false
		}
		xdraw.ApproxBiLinear.Scale(dst, st.canvas, st.photo, st.photo.Bounds(), draw.Over, nil)
		drawBorder(dst, st.canvas.Inset(-1), t.CanvasBorder, 1)
	}
	if ctx.Err() != nil {
		return false
	}

	bar := image.Rect(bounds.Min.X, bounds.Max.Y-statusHeight, bounds.Max.X, bounds.Max.Y)
	draw.Draw(dst, bar, image.NewUniform(t.StatusBackground), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.StatusText), Face: basicfont.Face7x13}
	baseline := bar.Min.Y + (statusHeight+basicfont.Face7x13.Ascent-basicfont.Face7x13.Descent)/2
	d.Dot = fixed.P(bar.Min.X+6, baseline)
	d.DrawString(st.status)
	if st.photo != nil {
		if hw := d.MeasureString(statusHint).Ceil(); bar.Dx()-hw-6 > d.Dot.X.Ceil()+24 {
			d.Src = image.NewUniform(t.Foreground)
			d.Dot = fixed.P(bar.Max.X-hw-6, baseline)
			d.DrawString(statusHint)
		}
	}
	if ctx.Err() != nil {
		return false
	}

	if st.message != "" {
		face := loadMessageFace()
		md := &font.Drawer{Dst: dst, Src: image.NewUniform(t.MessageText), Face: face}
		wmsg := md.MeasureString(st.message).Ceil()
		ascent := face.Metrics().Ascent.Ceil()
		descent := face.Metrics().Descent.Ceil()
		px := bounds.Min.X + (bounds.Dx()-wmsg)/2
		py := bounds.Min.Y + (bounds.Dy()-statusHeight-ascent-descent)/2 + ascent
		box := image.Rect(px-10, py-ascent-10, px+wmsg+10, py+descent+10)
		draw.Draw(dst, box, image.NewUniform(t.MessageBackground), image.Point{}, draw.Over)
		drawBorder(dst, box, t.MessageBorder, 2)
		md.Dot = fixed.P(px, py)
		md.DrawString(st.message)
	}
	return ctx.Err() == nil
}
