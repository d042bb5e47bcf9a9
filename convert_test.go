package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidImage returns a w*h RGBA image with every pixel set to the given
// channel values.
func solidImage(w, h int, r, g, b, a byte) *Image {
	img := &Image{Width: w, Height: h, Channels: 4, Pix: make([]byte, w*h*4)}

	for i := 0; i < w*h*4; i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}

	return img
}

func TestPremultipliedBGRAHalfAlpha(t *testing.T) {
	// A 32x32 image with alpha=128 everywhere must come out with every
	// color channel at the integer floor of v*128/255.
	img := solidImage(32, 32, 200, 100, 50, 128)

	out, err := premultipliedBGRA(img)
	require.NoError(t, err)
	require.Len(t, out, 32*32*4)

	for i := 0; i < len(out); i += 4 {
		assert.Equal(t, byte(50*128/255), out[i], "blue")
		assert.Equal(t, byte(100*128/255), out[i+1], "green")
		assert.Equal(t, byte(200*128/255), out[i+2], "red")
		assert.Equal(t, byte(128), out[i+3], "alpha")
	}
}

func TestPremultipliedBGRAOpaque(t *testing.T) {
	// Fully opaque pixels pass through unscaled, reordered to BGRA.
	img := solidImage(4, 4, 10, 20, 30, 255)

	out, err := premultipliedBGRA(img)
	require.NoError(t, err)

	assert.Equal(t, byte(30), out[0])
	assert.Equal(t, byte(20), out[1])
	assert.Equal(t, byte(10), out[2])
	assert.Equal(t, byte(255), out[3])
}

func TestPremultipliedBGRANoAlphaChannel(t *testing.T) {
	// Three-channel images are treated as fully opaque.
	img := &Image{Width: 2, Height: 1, Channels: 3, Pix: []byte{
		1, 2, 3,
		4, 5, 6,
	}}

	out, err := premultipliedBGRA(img)
	require.NoError(t, err)

	assert.Equal(t, []byte{3, 2, 1, 255, 6, 5, 4, 255}, out)
}

func TestPremultipliedBGRAStride(t *testing.T) {
	// Rows may carry trailing padding; it must be skipped, not read as
	// pixel data.
	img := &Image{Width: 2, Height: 2, Channels: 4, Stride: 12, Pix: []byte{
		255, 0, 0, 255, 0, 255, 0, 255, 0xAA, 0xBB, 0xCC, 0xDD,
		0, 0, 255, 255, 255, 255, 255, 255,
	}}

	out, err := premultipliedBGRA(img)
	require.NoError(t, err)
	require.Len(t, out, 16)

	assert.Equal(t, []byte{0, 0, 255, 255}, out[0:4])
	assert.Equal(t, []byte{0, 255, 0, 255}, out[4:8])
	assert.Equal(t, []byte{255, 0, 0, 255}, out[8:12])
	assert.Equal(t, []byte{255, 255, 255, 255}, out[12:16])
}

func TestPremultipliedBGRAInvalid(t *testing.T) {
	tests := []struct {
		name string
		img  *Image
	}{
		{"nil image", nil},
		{"zero width", &Image{Width: 0, Height: 4, Channels: 4}},
		{"bad channels", &Image{Width: 2, Height: 2, Channels: 2, Pix: make([]byte, 8)}},
		{"short buffer", &Image{Width: 4, Height: 4, Channels: 4, Pix: make([]byte, 8)}},
		{"stride too small", &Image{Width: 4, Height: 1, Channels: 4, Stride: 8, Pix: make([]byte, 16)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := premultipliedBGRA(tt.img)
			assert.Error(t, err)
		})
	}
}

func TestTransparentPixelFullyPremultiplied(t *testing.T) {
	img := solidImage(1, 1, 255, 255, 255, 0)

	out, err := premultipliedBGRA(img)
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}
