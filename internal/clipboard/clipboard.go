//go:build linux || freebsd || openbsd || netbsd || dragonfly

// Package clipboard copies exported compositions and share links to the
// system clipboard and reads photos back from it.
package clipboard

import (
	"errors"
	"image"
	"os"
	"sync"

	"github.com/example/capstayson/internal/imageio"
)

var (
	// ErrNoDisplay is returned when neither X11 nor Wayland is reachable.
	ErrNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	// ErrNoImage is returned by ReadImage when the clipboard holds no image.
	ErrNoImage = errors.New("clipboard does not contain image data")
	// ErrNoText is returned by ReadText when the clipboard holds no text.
	ErrNoText = errors.New("clipboard does not contain text data")
)

// backend moves raw bytes in and out of the system clipboard. Images are
// always PNG encoded.
type backend interface {
	writeText([]byte) error
	writePNG([]byte) error
	readText() ([]byte, error)
	readPNG() ([]byte, error)
}

var (
	initOnce sync.Once
	initErr  error
	active   backend
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = ErrNoDisplay
			return
		}
		active, initErr = newBackend()
	})
	return initErr
}

// WriteImage encodes img as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		return err
	}
	return WritePNG(data)
}

// WritePNG publishes already encoded PNG bytes.
func WritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return active.writePNG(data)
}

// ReadImage retrieves image data from the clipboard and decodes it.
func ReadImage() (*image.RGBA, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := active.readPNG()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return imageio.DecodeBytes(data)
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return active.writeText([]byte(text))
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := active.readText()
	if err != nil {
		return "", err
	}
	// Some applications include a trailing NUL in STRING responses.
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	if len(data) == 0 {
		return "", ErrNoText
	}
	return string(data), nil
}
