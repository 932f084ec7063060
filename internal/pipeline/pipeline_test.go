package pipeline

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edgevision/internal/accel"
	"github.com/ironsheep/edgevision/internal/bitmap"
	"github.com/ironsheep/edgevision/internal/sobel"
)

// createTestBitmap writes a width x height BMP with a bright right half.
func createTestBitmap(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{20, 20, 20, 255})
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{230, 230, 230, 255})
		}
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save test bitmap: %v", err)
	}
	return path
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		tag   string
		want  string
	}{
		{"lena.bmp", "_HPSoutput", "output/lena_HPSoutput.bmp"},
		{"images/nested/cat.bmp", "_FPGAoutput", "output/cat_FPGAoutput.bmp"},
		{"a.bmp", "_HPSoutput", "output/a_HPSoutput.bmp"},
		{"x.bmp.bak", "_HPSoutput", "output/x.bmp_HPSoutput.bmp"},
	}
	for _, tt := range tests {
		got, err := OutputPath("output", tt.input, tt.tag)
		if err != nil {
			t.Errorf("OutputPath(%q) failed: %v", tt.input, err)
			continue
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOutputPath_TooShort(t *testing.T) {
	for _, in := range []string{"", "a.b", "dir/ab"} {
		if _, err := OutputPath("output", in, "_HPSoutput"); !errors.Is(err, ErrInvalidName) {
			t.Errorf("OutputPath(%q): got %v, want ErrInvalidName", in, err)
		}
	}
}

func TestMode(t *testing.T) {
	if Software.Tag() != "_HPSoutput" || Offload.Tag() != "_FPGAoutput" {
		t.Errorf("tags: got %q and %q", Software.Tag(), Offload.Tag())
	}
	if Software.DiagnosticsFile() != "HPS_output.txt" || Offload.DiagnosticsFile() != "FPGA_HPS_output.txt" {
		t.Errorf("diagnostics files: got %q and %q", Software.DiagnosticsFile(), Offload.DiagnosticsFile())
	}
	if Software.String() != "hps" || Offload.String() != "fpga" {
		t.Errorf("names: got %q and %q", Software, Offload)
	}
}

func TestRunner_Software(t *testing.T) {
	dir := t.TempDir()
	in := createTestBitmap(t, dir, "edge.bmp", 9, 6)
	outDir := filepath.Join(dir, "output")

	r := &Runner{Engine: SoftwareEngine{}, Mode: Software, OutputDir: outDir, Logger: quietLogger()}
	report, err := r.Run([]string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results: got %d, want 1", len(report.Results))
	}

	res := report.Results[0]
	if want := filepath.Join(outDir, "edge_HPSoutput.bmp"); res.Output != want {
		t.Errorf("output: got %q, want %q", res.Output, want)
	}

	src, err := bitmap.Decode(in)
	if err != nil {
		t.Fatalf("Decode input failed: %v", err)
	}
	got, err := bitmap.Decode(res.Output)
	if err != nil {
		t.Fatalf("Decode output failed: %v", err)
	}
	g := src.Geometry()
	want := sobel.Filter(src.Pix, g.Width, g.Height, g.BytesPerPixel)
	if !bytes.Equal(got.Pix, want) {
		t.Error("output pixels differ from the software filter")
	}
	if got.Header.Info.Width != src.Header.Info.Width || got.Header.Info.Height != src.Header.Info.Height {
		t.Errorf("dimensions changed: got %dx%d", got.Header.Info.Width, got.Header.Info.Height)
	}
}

func TestRunner_Offload(t *testing.T) {
	dir := t.TempDir()
	in := createTestBitmap(t, dir, "edge.bmp", 5, 4)

	mock := &accel.Mock{Respond: func(uint32) byte { return 0x42 }}
	engine := &OffloadEngine{Transport: mock}
	r := &Runner{Engine: engine, Mode: Offload, OutputDir: filepath.Join(dir, "output"), Logger: quietLogger()}

	report, err := r.Run([]string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := 5 * 4 * 3; engine.Requests != want || mock.Reads() != want {
		t.Errorf("requests: got %d (mock reads %d), want %d", engine.Requests, mock.Reads(), want)
	}
	if !mock.Balanced() {
		t.Error("transport accesses were not strictly paired")
	}

	out, err := bitmap.Decode(report.Results[0].Output)
	if err != nil {
		t.Fatalf("Decode output failed: %v", err)
	}
	for i, v := range out.Pix {
		if v != 0x42 {
			t.Fatalf("byte %d: got 0x%02X, want 0x42", i, v)
		}
	}
	if filepath.Base(report.Results[0].Output) != "edge_FPGAoutput.bmp" {
		t.Errorf("output name: got %q", filepath.Base(report.Results[0].Output))
	}
}

func TestRunner_AbortsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	first := createTestBitmap(t, dir, "first.bmp", 4, 4)
	bad := filepath.Join(dir, "bad.bmp")
	if err := os.WriteFile(bad, []byte("not a bitmap at all, certainly not BM"), 0o644); err != nil {
		t.Fatalf("failed to write bad file: %v", err)
	}
	third := createTestBitmap(t, dir, "third.bmp", 4, 4)
	outDir := filepath.Join(dir, "output")

	r := &Runner{Engine: SoftwareEngine{}, OutputDir: outDir, Logger: quietLogger()}
	report, err := r.Run([]string{first, bad, third})
	if !errors.Is(err, bitmap.ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
	if len(report.Results) != 1 {
		t.Errorf("completed results: got %d, want 1", len(report.Results))
	}
	if _, err := os.Stat(filepath.Join(outDir, "third_HPSoutput.bmp")); !os.IsNotExist(err) {
		t.Error("images after the failure should not be processed")
	}
}

func TestRunner_MissingInput(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Engine: SoftwareEngine{}, OutputDir: filepath.Join(dir, "output"), Logger: quietLogger()}
	_, err := r.Run([]string{filepath.Join(dir, "missing.bmp")})
	if !errors.Is(err, bitmap.ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
}

func TestRunner_TransportFailure(t *testing.T) {
	dir := t.TempDir()
	in := createTestBitmap(t, dir, "edge.bmp", 4, 4)

	engine := &OffloadEngine{Transport: &accel.Mock{FailOn: 3}}
	r := &Runner{Engine: engine, Mode: Offload, OutputDir: filepath.Join(dir, "output"), Logger: quietLogger()}
	if _, err := r.Run([]string{in}); !errors.Is(err, accel.ErrHardware) {
		t.Errorf("got %v, want ErrHardware", err)
	}
}

func TestRunner_Preview(t *testing.T) {
	dir := t.TempDir()
	in := createTestBitmap(t, dir, "edge.bmp", 12, 6)

	r := &Runner{
		Engine:       SoftwareEngine{},
		OutputDir:    filepath.Join(dir, "output"),
		Preview:      true,
		PreviewWidth: 6,
		Logger:       quietLogger(),
	}
	report, err := r.Run([]string{in})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	p := report.Results[0].Preview
	if filepath.Ext(p) != ".png" {
		t.Fatalf("preview path: got %q, want .png", p)
	}
	img, err := imaging.Open(p)
	if err != nil {
		t.Fatalf("failed to open preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 3 {
		t.Errorf("preview size: got %dx%d, want 6x3", b.Dx(), b.Dy())
	}
}

func TestRunner_OutputDirBlocked(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "output")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	r := &Runner{Engine: SoftwareEngine{}, OutputDir: blocker, Logger: quietLogger()}
	if _, err := r.Run([]string{createTestBitmap(t, dir, "a.bmp", 3, 3)}); err == nil {
		t.Error("Run should fail when the output directory cannot be created")
	}
}
