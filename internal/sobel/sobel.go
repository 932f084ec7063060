// Package sobel computes inverted Sobel edge maps over raw interleaved pixel buffers.
package sobel

// Horizontal and vertical gradient kernels, indexed [row][column].
var (
	Gx = [3][3]int{
		{1, 0, -1},
		{2, 0, -2},
		{1, 0, -1},
	}
	Gy = [3][3]int{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	}
)

// Filter applies the Sobel operator to every channel of an interleaved buffer.
//
// Parameters:
//   - in: Row-major pixel data, width*height*bytesPerPixel bytes, no padding.
//   - width, height: Image dimensions in pixels.
//   - bytesPerPixel: Number of interleaved channels; each is filtered independently.
//
// Returns a new buffer of len(in) bytes. Only interior pixels (rows and
// columns 1 through dim-2) are written, so the outer one-pixel ring stays
// zero. Each written byte is 255 - min(|sumX|+|sumY|, 255): strong edges are
// dark and flat regions are white.
//
// When the geometry is invalid or in is shorter than it describes, the
// zeroed buffer is returned without filtering.
func Filter(in []byte, width, height, bytesPerPixel int) []byte {
	out := make([]byte, len(in))
	if width <= 0 || height <= 0 || bytesPerPixel <= 0 {
		return out
	}
	size := width * height * bytesPerPixel
	if len(in) < size {
		return out
	}
	pitch := width * bytesPerPixel

	for row := 1; row < height-1; row++ {
		for col := 1; col < width-1; col++ {
			for ch := 0; ch < bytesPerPixel; ch++ {
				var sumX, sumY int
				for i := -1; i <= 1; i++ {
					for j := -1; j <= 1; j++ {
						idx := (row+i)*pitch + (col+j)*bytesPerPixel + ch
						if idx < 0 || idx >= size {
							continue
						}
						v := int(in[idx])
						sumX += v * Gx[i+1][j+1]
						sumY += v * Gy[i+1][j+1]
					}
				}
				out[row*pitch+col*bytesPerPixel+ch] = Invert(Magnitude(sumX, sumY))
			}
		}
	}
	return out
}

// Kernel convolves a single 3x3 block with Gx and Gy.
func Kernel(block [3][3]byte) (sumX, sumY int) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := int(block[i][j])
			sumX += v * Gx[i][j]
			sumY += v * Gy[i][j]
		}
	}
	return sumX, sumY
}

// Magnitude returns |sumX|+|sumY| clamped to 255.
func Magnitude(sumX, sumY int) uint8 {
	m := abs(sumX) + abs(sumY)
	if m > 255 {
		m = 255
	}
	return uint8(m)
}

// Invert maps an edge magnitude to the output convention: 255 - magnitude.
func Invert(magnitude uint8) uint8 {
	return 255 - magnitude
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
