package tray

import (
	"fmt"
	"image"
)

// Image is a packed RGB or RGBA pixel buffer supplied by the host. The
// package never mutates it; it only reads and converts it, and keeps a
// reference for as long as it is the current icon.
type Image struct {
	// Width and Height in pixels.
	Width  int
	Height int

	// Stride is the number of bytes per row. Zero means tightly packed
	// (Width * Channels).
	Stride int

	// Channels is the number of bytes per pixel: 3 (RGB, treated as fully
	// opaque) or 4 (RGBA, straight alpha).
	Channels int

	// Pix holds the pixel data in row-major order.
	Pix []byte
}

// FromImage converts a decoded [image.Image] into an [Image]. It is a
// convenience for hosts that load icons with the image/png or image/jpeg
// decoders.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	img := &Image{
		Width:    width,
		Height:   height,
		Stride:   width * 4,
		Channels: 4,
		Pix:      make([]byte, width*height*4),
	}

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()

			// RGBA returns premultiplied 16-bit channels; convert back to
			// straight 8-bit alpha.
			if a > 0 {
				img.Pix[idx] = byte((r * 0xFF) / a)
				img.Pix[idx+1] = byte((g * 0xFF) / a)
				img.Pix[idx+2] = byte((b * 0xFF) / a)
			}
			img.Pix[idx+3] = byte(a >> 8)
			idx += 4
		}
	}

	return img
}

// stride returns the effective row stride in bytes.
func (img *Image) stride() int {
	if img.Stride > 0 {
		return img.Stride
	}
	return img.Width * img.Channels
}

// validate reports whether the buffer is consistent with its declared
// geometry.
func (img *Image) validate() error {
	if img == nil {
		return fmt.Errorf("image: nil")
	}

	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("image: invalid dimensions %dx%d", img.Width, img.Height)
	}

	if img.Channels != 3 && img.Channels != 4 {
		return fmt.Errorf("image: invalid channel count %d", img.Channels)
	}

	stride := img.stride()
	if stride < img.Width*img.Channels {
		return fmt.Errorf("image: stride %d too small for width %d", stride, img.Width)
	}

	// The last row does not need trailing padding.
	need := stride*(img.Height-1) + img.Width*img.Channels
	if len(img.Pix) < need {
		return fmt.Errorf("image: pixel buffer too short: have %d, need %d", len(img.Pix), need)
	}

	return nil
}

// at returns the straight-alpha RGBA value of the pixel at (x, y).
// Images without an alpha channel are treated as fully opaque.
func (img *Image) at(x, y int) (r, g, b, a byte) {
	offset := y*img.stride() + x*img.Channels

	r = img.Pix[offset]
	g = img.Pix[offset+1]
	b = img.Pix[offset+2]
	a = 0xFF

	if img.Channels == 4 {
		a = img.Pix[offset+3]
	}

	return r, g, b, a
}

// toNRGBA copies the buffer into a straight-alpha [image.NRGBA], the form
// expected by the PNG encoder and the scaler.
func (img *Image) toNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.at(x, y)
			offset := y*out.Stride + x*4
			out.Pix[offset] = r
			out.Pix[offset+1] = g
			out.Pix[offset+2] = b
			out.Pix[offset+3] = a
		}
	}

	return out
}
