package bitmap

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic is the "BM" signature stored little-endian in FileHeader.Type.
	Magic uint16 = 0x4D42

	FileHeaderSize = 14
	InfoHeaderSize = 40
	HeaderSize     = FileHeaderSize + InfoHeaderSize

	// CompressionNone is BI_RGB, the only compression tag accepted.
	CompressionNone uint32 = 0

	MaxPaletteEntries = 256
	PaletteEntrySize  = 4

	// MaxPixelBytes bounds the unpadded pixel buffer the decoder will allocate.
	MaxPixelBytes = 256 << 20
)

var (
	ErrIO         = errors.New("bitmap: i/o error")
	ErrFormat     = errors.New("bitmap: invalid format")
	ErrAllocation = errors.New("bitmap: allocation failed")
)

// FileHeader mirrors BITMAPFILEHEADER.
type FileHeader struct {
	Type      uint16 // must be Magic
	Size      uint32 // size of the whole file in bytes
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32 // offset from the start of the file to the pixel data
}

// InfoHeader mirrors BITMAPINFOHEADER.
type InfoHeader struct {
	Size            uint32 // size of this header in bytes
	Width           int32
	Height          int32 // negative for top-down files
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32 // size of the padded pixel data in bytes
	XPelsPerMeter   int32
	YPelsPerMeter   int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Header is the pair of headers found at the start of every BMP file.
type Header struct {
	File FileHeader
	Info InfoHeader
}

// MarshalBinary encodes the file header into its 14-byte on-disk form.
func (h FileHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], h.Type)
	binary.LittleEndian.PutUint32(b[2:6], h.Size)
	binary.LittleEndian.PutUint16(b[6:8], h.Reserved1)
	binary.LittleEndian.PutUint16(b[8:10], h.Reserved2)
	binary.LittleEndian.PutUint32(b[10:14], h.OffBits)
	return b, nil
}

// UnmarshalBinary decodes a 14-byte file header. It does not check the signature.
func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < FileHeaderSize {
		return fmt.Errorf("%w: file header is %d bytes, want %d", ErrFormat, len(b), FileHeaderSize)
	}
	h.Type = binary.LittleEndian.Uint16(b[0:2])
	h.Size = binary.LittleEndian.Uint32(b[2:6])
	h.Reserved1 = binary.LittleEndian.Uint16(b[6:8])
	h.Reserved2 = binary.LittleEndian.Uint16(b[8:10])
	h.OffBits = binary.LittleEndian.Uint32(b[10:14])
	return nil
}

// MarshalBinary encodes the info header into its 40-byte on-disk form.
func (h InfoHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, InfoHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Size)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Width))
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Height))
	binary.LittleEndian.PutUint16(b[12:14], h.Planes)
	binary.LittleEndian.PutUint16(b[14:16], h.BitCount)
	binary.LittleEndian.PutUint32(b[16:20], h.Compression)
	binary.LittleEndian.PutUint32(b[20:24], h.SizeImage)
	binary.LittleEndian.PutUint32(b[24:28], uint32(h.XPelsPerMeter))
	binary.LittleEndian.PutUint32(b[28:32], uint32(h.YPelsPerMeter))
	binary.LittleEndian.PutUint32(b[32:36], h.ColorsUsed)
	binary.LittleEndian.PutUint32(b[36:40], h.ColorsImportant)
	return b, nil
}

// UnmarshalBinary decodes the first 40 bytes of an info header. Extended
// headers (V4, V5) are accepted; fields past the first 40 bytes are ignored.
func (h *InfoHeader) UnmarshalBinary(b []byte) error {
	if len(b) < InfoHeaderSize {
		return fmt.Errorf("%w: info header is %d bytes, want %d", ErrFormat, len(b), InfoHeaderSize)
	}
	h.Size = binary.LittleEndian.Uint32(b[0:4])
	h.Width = int32(binary.LittleEndian.Uint32(b[4:8]))
	h.Height = int32(binary.LittleEndian.Uint32(b[8:12]))
	h.Planes = binary.LittleEndian.Uint16(b[12:14])
	h.BitCount = binary.LittleEndian.Uint16(b[14:16])
	h.Compression = binary.LittleEndian.Uint32(b[16:20])
	h.SizeImage = binary.LittleEndian.Uint32(b[20:24])
	h.XPelsPerMeter = int32(binary.LittleEndian.Uint32(b[24:28]))
	h.YPelsPerMeter = int32(binary.LittleEndian.Uint32(b[28:32]))
	h.ColorsUsed = binary.LittleEndian.Uint32(b[32:36])
	h.ColorsImportant = binary.LittleEndian.Uint32(b[36:40])
	return nil
}

// BytesPerPixel returns BitCount/8.
func (h Header) BytesPerPixel() int {
	return int(h.Info.BitCount) / 8
}

// TopDown reports whether rows are stored top row first.
func (h Header) TopDown() bool {
	return h.Info.Height < 0
}

// Geometry returns the in-memory geometry described by the header.
func (h Header) Geometry() Geometry {
	height := int(h.Info.Height)
	if height < 0 {
		height = -height
	}
	return Geometry{
		Width:         int(h.Info.Width),
		Height:        height,
		BytesPerPixel: h.BytesPerPixel(),
	}
}

// Validate checks the header against what this codec can decode.
func (h Header) Validate() error {
	if h.File.Type != Magic {
		return fmt.Errorf("%w: signature 0x%04X is not a bitmap", ErrFormat, h.File.Type)
	}
	if h.Info.Size < InfoHeaderSize {
		return fmt.Errorf("%w: info header size %d not supported", ErrFormat, h.Info.Size)
	}
	if h.Info.Width <= 0 || h.Info.Height == 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, h.Info.Width, h.Info.Height)
	}
	switch h.Info.BitCount {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per pixel not supported", ErrFormat, h.Info.BitCount)
	}
	if h.Info.Compression != CompressionNone {
		return fmt.Errorf("%w: compression %d not supported", ErrFormat, h.Info.Compression)
	}
	if h.Info.ColorsUsed > MaxPaletteEntries {
		return fmt.Errorf("%w: %d palette entries exceeds %d", ErrFormat, h.Info.ColorsUsed, MaxPaletteEntries)
	}
	return nil
}

// Geometry is the shape of an unpadded pixel buffer.
type Geometry struct {
	Width         int
	Height        int
	BytesPerPixel int
}

// RowBytes is the unpadded length of one row.
func (g Geometry) RowBytes() int {
	return g.Width * g.BytesPerPixel
}

// Stride is the padded length of one row on disk.
func (g Geometry) Stride() int {
	return Stride(g.Width, g.BytesPerPixel)
}

// Len is the length of the unpadded pixel buffer.
func (g Geometry) Len() int {
	return g.RowBytes() * g.Height
}

// Stride returns width*bytesPerPixel rounded up to the next multiple of 4.
func Stride(width, bytesPerPixel int) int {
	return (width*bytesPerPixel + 3) &^ 3
}

// Palette holds color table entries in on-disk order (blue, green, red, reserved).
type Palette [][PaletteEntrySize]byte

// Size is the number of bytes the palette occupies on disk.
func (p Palette) Size() int {
	return len(p) * PaletteEntrySize
}
