// Package pipeline runs the decode, filter, encode sequence over a batch of
// bitmap files.
//
// A Runner processes its inputs strictly one after another. The first image
// that fails to decode, filter or encode ends the whole run; images already
// written stay on disk and later inputs are not attempted.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edgevision/internal/bitmap"
	"github.com/ironsheep/edgevision/internal/preview"
)

// ErrInvalidName is returned for input paths too short to carry an extension.
var ErrInvalidName = errors.New("pipeline: invalid input filename")

// Mode selects where the convolution runs and how outputs are named.
type Mode int

const (
	Software Mode = iota
	Offload
)

func (m Mode) String() string {
	if m == Offload {
		return "fpga"
	}
	return "hps"
}

// Tag is appended to the output file stem.
func (m Mode) Tag() string {
	if m == Offload {
		return "_FPGAoutput"
	}
	return "_HPSoutput"
}

// DiagnosticsFile is where the CLI sends its log when asked to write to a file.
func (m Mode) DiagnosticsFile() string {
	if m == Offload {
		return "FPGA_HPS_output.txt"
	}
	return "HPS_output.txt"
}

// OutputPath derives dir/<stem><tag>.bmp, where stem is the base name of
// input with its last four characters removed.
func OutputPath(dir, input, tag string) (string, error) {
	base := filepath.Base(input)
	if len(input) < 4 || len(base) < 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, input)
	}
	return filepath.Join(dir, base[:len(base)-4]+tag+".bmp"), nil
}

// Result describes one processed image.
type Result struct {
	Input    string
	Output   string
	Preview  string
	Geometry bitmap.Geometry
	Duration time.Duration
}

// Report collects the results of a run.
type Report struct {
	Results []Result
	Total   time.Duration
}

// Runner processes bitmap files with a fixed engine.
type Runner struct {
	Engine    Engine
	Mode      Mode
	OutputDir string

	// Preview writes a PNG beside each output, PreviewWidth pixels wide.
	// A zero width keeps the original size.
	Preview      bool
	PreviewWidth int

	Logger *logrus.Logger
}

func (r *Runner) logger() *logrus.Logger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

// Run processes paths in order and stops at the first failure.
//
// Returns:
//   - *Report: Results for every image completed, even when err is non-nil.
//   - error: The first failure, wrapped with its input path.
func (r *Runner) Run(paths []string) (*Report, error) {
	report := &Report{}

	dir := r.OutputDir
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, p := range paths {
		res, err := r.process(dir, p)
		if err != nil {
			return report, fmt.Errorf("%s: %w", p, err)
		}
		report.Results = append(report.Results, res)
		report.Total += res.Duration

		r.logger().WithFields(logrus.Fields{
			"image":   filepath.Base(p),
			"runtime": res.Duration.Seconds(),
			"total":   report.Total.Seconds(),
		}).Info("Image processed")
	}
	return report, nil
}

func (r *Runner) process(dir, input string) (Result, error) {
	start := time.Now()
	res := Result{Input: input}

	out, err := OutputPath(dir, input, r.Mode.Tag())
	if err != nil {
		return res, err
	}
	res.Output = out

	log := r.logger().WithField("image", input)
	log.Info("Sobel filter processing")

	m, err := bitmap.Decode(input)
	if err != nil {
		return res, err
	}
	res.Geometry = m.Geometry()
	log.WithFields(headerFields(m.Header)).Debug("Image details")

	if r.Engine == nil {
		return res, errors.New("no filter engine configured")
	}
	filtered, err := r.Engine.Filter(m.Pix, res.Geometry)
	if err != nil {
		return res, fmt.Errorf("filter failed: %w", err)
	}

	if err := bitmap.Encode(out, filtered, m.Header, m.Palette); err != nil {
		return res, err
	}
	log.WithField("output", out).Debug("Output written")

	if r.Preview {
		res.Preview = preview.Path(out)
		img, err := bitmap.ToImage(filtered, m.Header, m.Palette)
		if err != nil {
			return res, err
		}
		if err := preview.Save(res.Preview, img, r.PreviewWidth); err != nil {
			return res, err
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

func headerFields(h bitmap.Header) logrus.Fields {
	return logrus.Fields{
		"info_header_size": h.Info.Size,
		"width":            h.Info.Width,
		"height":           h.Info.Height,
		"planes":           h.Info.Planes,
		"bits_per_pixel":   h.Info.BitCount,
		"compression":      h.Info.Compression,
		"image_size":       h.Info.SizeImage,
		"colors_used":      h.Info.ColorsUsed,
		"data_offset":      h.File.OffBits,
		"bytes_per_pixel":  h.BytesPerPixel(),
	}
}
