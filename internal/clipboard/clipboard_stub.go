//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

// Package clipboard copies exported compositions and share links to the
// system clipboard and reads photos back from it.
package clipboard

import (
	"errors"
	"image"
)

// ErrUnsupported is returned by every operation on this platform.
var ErrUnsupported = errors.New("clipboard operations are not supported on this platform")

var (
	ErrNoImage = errors.New("clipboard does not contain image data")
	ErrNoText  = errors.New("clipboard does not contain text data")
)

func WriteImage(image.Image) error { return ErrUnsupported }
func WritePNG([]byte) error { return ErrUnsupported }
func ReadImage() (*image.RGBA, error) { return nil, ErrUnsupported }
func WriteText(string) error { return ErrUnsupported }
func ReadText() (string, error) { return "", ErrUnsupported }
