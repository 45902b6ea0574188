package theme

import (
	"image/color"
)

// Theme defines the colours of the editor chrome. The canvas itself is
// always the photo at its own colours.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // Behind the canvas
	Foreground color.RGBA // Help and hint text

	// Status bar along the bottom edge
	StatusBackground color.RGBA
	StatusText       color.RGBA

	// Transient message box
	MessageBackground color.RGBA
	MessageText       color.RGBA
	MessageBorder     color.RGBA

	// Canvas
	CanvasBorder color.RGBA
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		StatusBackground:  color.RGBA{200, 200, 200, 255},
		StatusText:        color.RGBA{0, 0, 0, 255},
		MessageBackground: color.RGBA{255, 255, 255, 230},
		MessageText:       color.RGBA{0, 0, 0, 255},
		MessageBorder:     color.RGBA{13, 148, 136, 255},
		CanvasBorder:      color.RGBA{120, 120, 120, 255},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
	}
}
