package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleToGlyphSizes(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"downscale square", 64, 64},
		{"upscale square", 8, 8},
		{"already glyph sized", glyphSize, glyphSize},
		{"non-square", 48, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solidImage(tt.w, tt.h, 10, 20, 30, 255)

			pix, err := scaleToGlyph(img)
			require.NoError(t, err)

			// Always a tightly packed RGBA glyph, independent of source
			// resolution.
			assert.Len(t, pix, glyphSize*glyphSize*4)
		})
	}
}

func TestScaleToGlyphSolidColorPreserved(t *testing.T) {
	img := solidImage(64, 64, 200, 100, 50, 255)

	pix, err := scaleToGlyph(img)
	require.NoError(t, err)

	// Resampling a constant image must not invent new colors.
	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, byte(200), pix[i])
		assert.Equal(t, byte(100), pix[i+1])
		assert.Equal(t, byte(50), pix[i+2])
		assert.Equal(t, byte(255), pix[i+3])
	}
}

func TestScaleToGlyphInvalid(t *testing.T) {
	_, err := scaleToGlyph(nil)
	assert.Error(t, err)

	_, err = scaleToGlyph(&Image{Width: 4, Height: 4, Channels: 4, Pix: nil})
	assert.Error(t, err)
}
