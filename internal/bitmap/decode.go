package bitmap

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Image is a decoded bitmap: its headers, its palette and its unpadded pixels.
type Image struct {
	Header  Header
	Palette Palette
	Pix     []byte
}

// Geometry returns the geometry of m's pixel buffer.
func (m *Image) Geometry() Geometry {
	return m.Header.Geometry()
}

// Decode opens the file at path and decodes it.
//
// Parameters:
//   - path: Path to an uncompressed BMP file.
//
// Returns:
//   - *Image: Headers as read from disk, the palette (for an 8-bit file with
//     ColorsUsed 0, the implied table found before the pixel data) and the
//     pixel rows with their padding removed.
//   - error: Wraps ErrIO, ErrFormat or ErrAllocation.
func Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bitmap: %w", ErrIO, err)
	}
	defer f.Close()

	return Read(f)
}

// Read decodes a bitmap from r. The pixel data is located by seeking to the
// header's data offset, never by assuming it follows the palette.
func Read(r io.ReadSeeker) (*Image, error) {
	d := &decoder{r: r}
	d.decodeHeader()
	d.decodePalette()
	d.decodePixels()
	if d.err != nil {
		return nil, d.err
	}
	return &d.m, nil
}

type decoder struct {
	r   io.ReadSeeker
	m   Image
	err error
}

func (d *decoder) readFull(b []byte, what string) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = fmt.Errorf("%w: failed to read %s: %w", ErrIO, what, err)
	}
}

func (d *decoder) seek(offset int64, what string) {
	if d.err != nil {
		return
	}
	if _, err := d.r.Seek(offset, io.SeekStart); err != nil {
		d.err = fmt.Errorf("%w: failed to seek to %s: %w", ErrIO, what, err)
	}
}

func (d *decoder) decodeHeader() {
	b := make([]byte, HeaderSize)

	d.readFull(b[:FileHeaderSize], "file header")
	if d.err != nil {
		return
	}
	if d.err = d.m.Header.File.UnmarshalBinary(b[:FileHeaderSize]); d.err != nil {
		return
	}
	// Reject on the signature before reading anything else.
	if d.m.Header.File.Type != Magic {
		d.err = fmt.Errorf("%w: signature 0x%04X is not a bitmap", ErrFormat, d.m.Header.File.Type)
		return
	}

	d.readFull(b[FileHeaderSize:], "info header")
	if d.err != nil {
		return
	}
	if d.err = d.m.Header.Info.UnmarshalBinary(b[FileHeaderSize:]); d.err != nil {
		return
	}
	d.err = d.m.Header.Validate()
}

func (d *decoder) decodePalette() {
	if d.err != nil {
		return
	}
	n := int(d.m.Header.Info.ColorsUsed)
	if n == 0 && d.m.Header.Info.BitCount == 8 {
		n = d.impliedColors()
	}
	if n == 0 {
		return
	}
	// The palette follows the info header, whatever its declared size.
	if d.m.Header.Info.Size != InfoHeaderSize {
		d.seek(int64(FileHeaderSize)+int64(d.m.Header.Info.Size), "palette")
	}

	b := make([]byte, n*PaletteEntrySize)
	d.readFull(b, "palette")
	if d.err != nil {
		return
	}
	d.m.Palette = make(Palette, n)
	for i := range d.m.Palette {
		copy(d.m.Palette[i][:], b[i*PaletteEntrySize:])
	}
}

// impliedColors sizes the full 256-entry table an 8-bit file carries when
// ColorsUsed is 0, limited to the room left before the pixel data.
func (d *decoder) impliedColors() int {
	start := int64(FileHeaderSize) + int64(d.m.Header.Info.Size)
	room := (int64(d.m.Header.File.OffBits) - start) / PaletteEntrySize
	if room <= 0 {
		return 0
	}
	return int(min(room, MaxPaletteEntries))
}

func (d *decoder) decodePixels() {
	if d.err != nil {
		return
	}
	g := d.m.Header.Geometry()
	if n := int64(g.Width) * int64(g.Height) * int64(g.BytesPerPixel); n > MaxPixelBytes {
		d.err = fmt.Errorf("%w: %dx%d at %d bytes per pixel needs %d bytes, limit %d",
			ErrAllocation, g.Width, g.Height, g.BytesPerPixel, n, MaxPixelBytes)
		return
	}

	rowBytes := g.RowBytes()
	stride := int64(g.Stride())
	offset := int64(d.m.Header.File.OffBits)

	// The final row may lack its padding, so only its pixels are required.
	need := offset + stride*int64(g.Height-1) + int64(rowBytes)
	size := d.size()
	if d.err != nil {
		return
	}
	if size < need {
		d.err = fmt.Errorf("%w: pixel data truncated: need %d bytes, have %d", ErrIO, need, size)
		return
	}

	d.seek(offset, "pixel data")
	if d.err != nil {
		return
	}

	line := make([]byte, stride)
	d.m.Pix = make([]byte, g.Len())

	for y := 0; y < g.Height; y++ {
		n, err := io.ReadFull(d.r, line)
		if err != nil {
			// Some writers drop the padding of the final row.
			short := errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
			if !(short && y == g.Height-1 && n >= rowBytes) {
				d.err = fmt.Errorf("%w: failed to read pixel row %d: %w", ErrIO, y, err)
				return
			}
		}
		copy(d.m.Pix[y*rowBytes:(y+1)*rowBytes], line[:rowBytes])
	}
}

// size reports the length of the underlying stream.
func (d *decoder) size() int64 {
	if d.err != nil {
		return 0
	}
	n, err := d.r.Seek(0, io.SeekEnd)
	if err != nil {
		d.err = fmt.Errorf("%w: failed to measure stream: %w", ErrIO, err)
		return 0
	}
	return n
}
