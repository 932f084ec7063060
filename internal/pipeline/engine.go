package pipeline

import (
	"github.com/ironsheep/edgevision/internal/accel"
	"github.com/ironsheep/edgevision/internal/bitmap"
	"github.com/ironsheep/edgevision/internal/sobel"
	"github.com/ironsheep/edgevision/internal/stream"
)

// Engine turns a decoded pixel buffer into its edge map.
type Engine interface {
	Filter(pix []byte, g bitmap.Geometry) ([]byte, error)
}

// SoftwareEngine runs the Sobel filter on the host.
type SoftwareEngine struct{}

func (SoftwareEngine) Filter(pix []byte, g bitmap.Geometry) ([]byte, error) {
	return sobel.Filter(pix, g.Width, g.Height, g.BytesPerPixel), nil
}

// OffloadEngine streams the image through an accelerator transport.
type OffloadEngine struct {
	Transport accel.Transport

	// Requests accumulates the number of exchanges across images.
	Requests int
}

func (e *OffloadEngine) Filter(pix []byte, g bitmap.Geometry) ([]byte, error) {
	out, stats, err := stream.FilterStats(pix, g.Width, g.Height, g.BytesPerPixel, e.Transport)
	e.Requests += stats.Requests
	return out, err
}
