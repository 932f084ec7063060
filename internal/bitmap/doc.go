// Package bitmap reads and writes uncompressed Windows BMP files.
//
// The codec parses the 14-byte BITMAPFILEHEADER and the 40-byte
// BITMAPINFOHEADER field by field in little-endian order, so nothing depends
// on the layout of a Go struct in memory. Pixel data is held in memory as a
// single unpadded slice: each row occupies exactly Width*BytesPerPixel bytes
// and rows are kept in the order they appear on disk (bottom-up for positive
// heights, top-down for negative heights).
//
// # Supported Files
//
//   - Signature "BM" (0x4D42)
//   - Compression BI_RGB (0) only
//   - 8, 16, 24 or 32 bits per pixel
//   - Optional palette of up to 256 entries, carried through unchanged
//
// # Encoding
//
// Encode is authoritative over the size fields. Whatever values the header
// carried when it was decoded, the written file has its file size, pixel
// data offset, image size and colors-used count recomputed from the geometry
// and palette, and every row is padded with zeros to a 4-byte boundary.
//
// # Error Handling
//
// Every error returned by the package wraps one of the category sentinels so
// callers can branch with errors.Is:
//   - ErrIO: the file could not be opened, seeked, read or written
//   - ErrFormat: bad signature, unsupported compression or depth, bad geometry
//   - ErrAllocation: the declared geometry is too large to buffer
//
// A file that fails to encode part way through is left on disk as written.
package bitmap
