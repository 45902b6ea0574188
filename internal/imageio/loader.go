package imageio

import (
	"image"
	"io"
	"sync"
	"sync/atomic"
)

// Result is delivered once a Loader decode finishes.
type Result struct {
	Gen   uint64
	Image *image.RGBA
	Err   error
}

// Loader decodes photos off the event goroutine. Each Start bumps a
// generation counter; completions from older generations are dropped so a
// slow decode can never replace a newer photo.
type Loader struct {
	gen atomic.Uint64
	wg  sync.WaitGroup
}

// Start decodes r in a new goroutine and calls done with the result if no
// later Start happened in the meantime. It returns the generation assigned
// to this load.
func (l *Loader) Start(r io.Reader, done func(Result)) uint64 {
	gen := l.gen.Add(1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		img, err := Decode(r)
		if !l.IsCurrent(gen) {
			return
		}
		done(Result{Gen: gen, Image: img, Err: err})
	}()
	return gen
}

// Wait blocks until every started decode has finished.
func (l *Loader) Wait() { l.wg.Wait() }

// Cancel invalidates any load in flight.
func (l *Loader) Cancel() { l.gen.Add(1) }

// IsCurrent reports whether gen is the latest load. Receivers re-check this
// before applying a result because another load may have started after
// delivery.
func (l *Loader) IsCurrent(gen uint64) bool { return l.gen.Load() == gen }
