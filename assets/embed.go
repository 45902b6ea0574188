package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// Embedded cap artwork drawn over photos.
//
//go:embed cap.png
var capPNG []byte

var (
	loadCapOnce sync.Once
	loadCapErr  error
	capImage    image.Image
)

func loadCap() {
	img, err := png.Decode(bytes.NewReader(capPNG))
	if err != nil {
		loadCapErr = fmt.Errorf("decode embedded cap: %w", err)
		return
	}
	capImage = img
}

// Cap returns the decoded cap image. It is decoded once and shared; callers
// must not modify it.
func Cap() (image.Image, error) {
	loadCapOnce.Do(loadCap)
	return capImage, loadCapErr
}

// CapPNG returns a copy of the raw embedded PNG bytes.
func CapPNG() []byte {
	out := make([]byte, len(capPNG))
	copy(out, capPNG)
	return out
}
