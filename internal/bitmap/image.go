package bitmap

import (
	"fmt"
	"image"
	"image/color"
)

// ToImage converts the pixel buffer into a top-down *image.NRGBA.
//
// 8-bit pixels are looked up in the palette, falling back to gray when the
// index has no entry. 16-bit pixels are read as X1R5G5B5. 24- and 32-bit
// pixels are read as BGR; the fourth byte of a 32-bit BI_RGB pixel is unused
// and the result is opaque.
func (m *Image) ToImage() (*image.NRGBA, error) {
	return ToImage(m.Pix, m.Header, m.Palette)
}

// ToImage converts an unpadded pixel buffer described by hdr. See (*Image).ToImage.
func ToImage(pix []byte, hdr Header, pal Palette) (*image.NRGBA, error) {
	g := hdr.Geometry()
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, g.Width, g.Height)
	}
	if len(pix) < g.Len() {
		return nil, fmt.Errorf("%w: pixel buffer is %d bytes, geometry needs %d", ErrFormat, len(pix), g.Len())
	}

	out := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	bpp := g.BytesPerPixel
	rowBytes := g.RowBytes()

	for row := 0; row < g.Height; row++ {
		y := row
		if !hdr.TopDown() {
			y = g.Height - 1 - row
		}
		src := pix[row*rowBytes : (row+1)*rowBytes]
		for x := 0; x < g.Width; x++ {
			p := src[x*bpp : (x+1)*bpp]
			out.SetNRGBA(x, y, pixelColor(p, pal))
		}
	}
	return out, nil
}

func pixelColor(p []byte, pal Palette) color.NRGBA {
	switch len(p) {
	case 1:
		if int(p[0]) < len(pal) {
			e := pal[p[0]]
			return color.NRGBA{R: e[2], G: e[1], B: e[0], A: 255}
		}
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 255}
	case 2:
		v := uint16(p[0]) | uint16(p[1])<<8
		return color.NRGBA{
			R: expand5(uint8(v>>10) & 0x1f),
			G: expand5(uint8(v>>5) & 0x1f),
			B: expand5(uint8(v) & 0x1f),
			A: 255,
		}
	default:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	}
}

// expand5 scales a 5-bit channel to 8 bits.
func expand5(v uint8) uint8 {
	return v<<3 | v>>2
}
