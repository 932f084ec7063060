// Package stream reproduces the Sobel filter on the accelerator, one
// vertical sample window per request.
package stream

import (
	"fmt"

	"github.com/ironsheep/edgevision/internal/accel"
)

// Stats counts the exchanges made by a run.
type Stats struct {
	Requests int
}

// Filter streams every (channel, row, column) position of in through t and
// returns the bytes the accelerator answered, stored at the same positions.
//
// Positions are visited channel-major, then row, then column, with a row
// pitch of width*bytesPerPixel. Each request carries the sample above, at
// and below the position; the first row sends 0 above and the last row
// sends 0 below. If any of the three flat indices falls outside in, the
// whole window is sent as zeros. Replies are stored as-is, border included.
func Filter(in []byte, width, height, bytesPerPixel int, t accel.Transport) ([]byte, error) {
	out, _, err := FilterStats(in, width, height, bytesPerPixel, t)
	return out, err
}

// FilterStats is Filter that also reports how many requests were made.
func FilterStats(in []byte, width, height, bytesPerPixel int, t accel.Transport) ([]byte, Stats, error) {
	var stats Stats
	if t == nil {
		return nil, stats, accel.ErrNotConfigured
	}
	if width <= 0 || height <= 0 || bytesPerPixel <= 0 {
		return nil, stats, fmt.Errorf("invalid geometry %dx%dx%d", width, height, bytesPerPixel)
	}

	pitch := width * bytesPerPixel
	size := len(in)
	out := make([]byte, size)

	for ch := 0; ch < bytesPerPixel; ch++ {
		for row := 0; row < height; row++ {
			for col := 0; col < pitch; col += bytesPerPixel {
				prev := (row-1)*pitch + col + ch
				curr := row*pitch + col + ch
				next := (row+1)*pitch + col + ch

				var w accel.Window
				if inRange(prev, size) && inRange(curr, size) && inRange(next, size) {
					if row > 0 {
						w[0] = in[prev]
					}
					w[1] = in[curr]
					if row < height-1 {
						w[2] = in[next]
					}
				}

				if err := t.Write(accel.PackWindow(w)); err != nil {
					return nil, stats, fmt.Errorf("request at channel %d row %d column %d: %w", ch, row, col/bytesPerPixel, err)
				}
				v, err := t.Read()
				if err != nil {
					return nil, stats, fmt.Errorf("response at channel %d row %d column %d: %w", ch, row, col/bytesPerPixel, err)
				}
				stats.Requests++

				if inRange(curr, size) {
					out[curr] = v
				}
			}
		}
	}
	return out, stats, nil
}

func inRange(i, size int) bool {
	return i >= 0 && i < size
}
