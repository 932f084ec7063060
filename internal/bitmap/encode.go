package bitmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Encode writes pix as a bitmap file at path, creating or truncating it.
//
// Parameters:
//   - path: Destination file. Its directory must already exist.
//   - pix: Unpadded pixel rows, at least hdr.Geometry().Len() bytes.
//   - hdr: Header supplying geometry, depth and resolution. The size fields
//     are recomputed and need not be correct.
//   - pal: Palette written after the info header; may be empty.
//
// Returns:
//   - error: Wraps ErrIO on create or write failure, ErrFormat when the
//     header or buffer cannot describe a valid file. The partially written
//     file is not removed.
func Encode(path string, pix []byte, hdr Header, pal Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create bitmap: %w", ErrIO, err)
	}
	if err := Write(f, pix, hdr, pal); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close bitmap: %w", ErrIO, err)
	}
	return nil
}

// Save encodes m at path.
func (m *Image) Save(path string) error {
	return Encode(path, m.Pix, m.Header, m.Palette)
}

// Write encodes a bitmap to w. See Encode.
func Write(w io.Writer, pix []byte, hdr Header, pal Palette) error {
	if len(pal) > MaxPaletteEntries {
		return fmt.Errorf("%w: %d palette entries exceeds %d", ErrFormat, len(pal), MaxPaletteEntries)
	}
	hdr = finalize(hdr, pal)
	if err := hdr.Validate(); err != nil {
		return err
	}

	g := hdr.Geometry()
	if len(pix) < g.Len() {
		return fmt.Errorf("%w: pixel buffer is %d bytes, geometry needs %d", ErrFormat, len(pix), g.Len())
	}

	bw := bufio.NewWriter(w)

	fh, _ := hdr.File.MarshalBinary()
	ih, _ := hdr.Info.MarshalBinary()
	if _, err := bw.Write(fh); err != nil {
		return fmt.Errorf("%w: failed to write file header: %w", ErrIO, err)
	}
	if _, err := bw.Write(ih); err != nil {
		return fmt.Errorf("%w: failed to write info header: %w", ErrIO, err)
	}
	for i := range pal {
		if _, err := bw.Write(pal[i][:]); err != nil {
			return fmt.Errorf("%w: failed to write palette: %w", ErrIO, err)
		}
	}

	rowBytes := g.RowBytes()
	line := make([]byte, g.Stride())
	for y := 0; y < g.Height; y++ {
		// Padding bytes past rowBytes stay zero.
		copy(line, pix[y*rowBytes:(y+1)*rowBytes])
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("%w: failed to write pixel row %d: %w", ErrIO, y, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: failed to flush bitmap: %w", ErrIO, err)
	}
	return nil
}

// finalize recomputes every size-derived header field for the given palette.
func finalize(hdr Header, pal Palette) Header {
	g := hdr.Geometry()
	imageSize := g.Stride() * g.Height

	hdr.File.Type = Magic
	hdr.File.Reserved1 = 0
	hdr.File.Reserved2 = 0
	hdr.File.OffBits = uint32(HeaderSize + pal.Size())
	hdr.File.Size = uint32(HeaderSize + pal.Size() + imageSize)

	hdr.Info.Size = InfoHeaderSize
	hdr.Info.SizeImage = uint32(imageSize)
	hdr.Info.ColorsUsed = uint32(len(pal))
	if hdr.Info.ColorsImportant > hdr.Info.ColorsUsed {
		hdr.Info.ColorsImportant = hdr.Info.ColorsUsed
	}
	if hdr.Info.Planes == 0 {
		hdr.Info.Planes = 1
	}
	return hdr
}
