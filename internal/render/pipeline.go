package render

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/overlay"
	"go.uber.org/zap"
)

var (
	// ErrNotReady is returned while the photo or the cap image is missing.
	ErrNotReady = errors.New("render: not ready")
	// ErrExportInProgress is returned when an export is requested while
	// another one has not finished.
	ErrExportInProgress = errors.New("render: export already in progress")
)

// Pipeline keeps the preview surface of one editing session up to date.
type Pipeline struct {
	model   *overlay.Model
	base    image.Image
	capImg  image.Image
	surface *image.RGBA
	log     *zap.Logger

	exporting atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for export diagnostics.
func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithBase sets the initial photo.
func WithBase(img image.Image) Option { return func(p *Pipeline) { p.base = img } }

// WithCap sets the cap image.
func WithCap(img image.Image) Option { return func(p *Pipeline) { p.capImg = img } }

// NewPipeline returns a pipeline drawing the overlays of m.
func NewPipeline(m *overlay.Model, opts ...Option) *Pipeline {
	p := &Pipeline{model: m, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetBase replaces the photo. The overlay model is left alone.
func (p *Pipeline) SetBase(img image.Image) { p.base = img }

// Base returns the current photo, or nil.
func (p *Pipeline) Base() image.Image { return p.base }

// SetCap replaces the cap image.
func (p *Pipeline) SetCap(img image.Image) { p.capImg = img }

// Surface returns the most recently rendered frame, or nil.
func (p *Pipeline) Surface() *image.RGBA { return p.surface }

// Ready reports ErrNotReady, wrapped with the missing input, until both the
// photo and the cap image are set.
func (p *Pipeline) Ready() error {
	switch {
	case p.base == nil:
		return fmt.Errorf("%w: no photo loaded", ErrNotReady)
	case p.capImg == nil || p.capImg.Bounds().Empty():
		return fmt.Errorf("%w: cap image not loaded", ErrNotReady)
	}
	return nil
}

// Geometry describes the canvas for hit testing and dragging.
func (p *Pipeline) Geometry() (overlay.Canvas, error) {
	if err := p.Ready(); err != nil {
		return overlay.Canvas{}, err
	}
	bb, cb := p.base.Bounds(), p.capImg.Bounds()
	return overlay.Canvas{
		W:         float64(bb.Dx()),
		H:         float64(bb.Dy()),
		CapAspect: float64(cb.Dx()) / float64(cb.Dy()),
	}, nil
}

// Render redraws the surface from the current model.
func (p *Pipeline) Render(decorate bool) (*image.RGBA, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	p.surface = Render(p.surface, p.base, p.model.Overlays(), p.capImg, p.model.SelectedID(), decorate)
	return p.surface, nil
}

// ExportImage renders without decorations, copies the result, and renders
// the decorated preview again. The returned image is owned by the caller.
func (p *Pipeline) ExportImage() (*image.RGBA, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	if !p.exporting.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer p.exporting.Store(false)

	plain, err := p.Render(false)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(plain.Bounds())
	copy(out.Pix, plain.Pix)
	if _, err := p.Render(true); err != nil {
		return nil, err
	}
	p.log.Debug("exported composite",
		zap.Int("width", out.Bounds().Dx()),
		zap.Int("height", out.Bounds().Dy()),
		zap.Int("overlays", p.model.Len()))
	return out, nil
}

// ExportPNG is ExportImage encoded as PNG at the photo's native size.
func (p *Pipeline) ExportPNG() ([]byte, error) {
	img, err := p.ExportImage()
	if err != nil {
		return nil, err
	}
	return imageio.EncodePNG(img)
}
