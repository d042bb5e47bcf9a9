package tray

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// glyphSize is the square menu-bar glyph size in points expected by the
// macOS status bar, independent of the source icon resolution.
const glyphSize = 18

// scaleToGlyph resamples img down (or up) to the fixed menu-bar glyph size
// and returns tightly packed straight-alpha RGBA bytes.
func scaleToGlyph(img *Image) ([]byte, error) {
	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("glyph: %w", err)
	}

	src := img.toNRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, glyphSize, glyphSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return dst.Pix, nil
}
