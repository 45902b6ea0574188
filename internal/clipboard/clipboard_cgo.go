//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"golang.design/x/clipboard"
)

type systemClipboard struct{}

func newBackend() (backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return systemClipboard{}, nil
}

func (systemClipboard) writeText(data []byte) error {
	clipboard.Write(clipboard.FmtText, data)
	return nil
}

func (systemClipboard) writePNG(data []byte) error {
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

func (systemClipboard) readText() ([]byte, error) {
	return clipboard.Read(clipboard.FmtText), nil
}

func (systemClipboard) readPNG() ([]byte, error) {
	return clipboard.Read(clipboard.FmtImage), nil
}
