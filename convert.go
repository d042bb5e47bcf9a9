package tray

import "fmt"

// premultipliedBGRA converts img into a top-down, 32-bit, BGRA-ordered pixel
// buffer with color channels premultiplied by alpha. This is the layout a
// Windows DIB section expects when it backs an alpha-blended notification
// icon: the shell compositor requires premultiplied alpha, and the alpha
// byte itself is carried through unchanged.
func premultipliedBGRA(img *Image) ([]byte, error) {
	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("premultiply: %w", err)
	}

	out := make([]byte, img.Width*img.Height*4)
	idx := 0

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.at(x, y)

			if a < 0xFF {
				r = byte(int(r) * int(a) / 255)
				g = byte(int(g) * int(a) / 255)
				b = byte(int(b) * int(a) / 255)
			}

			out[idx] = b
			out[idx+1] = g
			out[idx+2] = r
			out[idx+3] = a
			idx += 4
		}
	}

	return out, nil
}
