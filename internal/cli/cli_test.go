package cli

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/edgevision/internal/accel"
	"github.com/ironsheep/edgevision/internal/config"
	"github.com/ironsheep/edgevision/internal/pipeline"
)

var testBuild = Build{Name: "edgevision", Version: "1.2.3", BuildTime: "now", GitCommit: "abc"}

type harness struct {
	dir    string
	vars   map[string]string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		dir: dir,
		vars: map[string]string{
			config.EnvOutputDir:   filepath.Join(dir, "output"),
			config.EnvDiagnostics: filepath.Join(dir, "diag.txt"),
		},
	}
}

func (h *harness) env(args ...string) Env {
	return Env{
		Args:   append([]string{"edgevision"}, args...),
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Getenv: func(k string) string { return h.vars[k] },
	}
}

func (h *harness) bitmap(t *testing.T, name string) string {
	t.Helper()
	img := imaging.New(6, 5, color.NRGBA{200, 30, 90, 255})
	path := filepath.Join(h.dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save bitmap: %v", err)
	}
	return path
}

func TestMain_Version(t *testing.T) {
	h := newHarness(t)
	if code := Main(h.env("--version"), pipeline.Software, testBuild); code != ExitOK {
		t.Fatalf("exit code: got %d, want %d", code, ExitOK)
	}
	if !strings.Contains(h.stdout.String(), "edgevision 1.2.3") {
		t.Errorf("version output: got %q", h.stdout.String())
	}
}

func TestMain_Help(t *testing.T) {
	h := newHarness(t)
	if code := Main(h.env("-h"), pipeline.Offload, testBuild); code != ExitOK {
		t.Fatalf("exit code: got %d, want %d", code, ExitOK)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "FPGA_HPS_output.txt") || !strings.Contains(out, config.EnvDevice) {
		t.Errorf("help output missing offload details: %q", out)
	}
}

func TestMain_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"mode only", []string{"-w"}},
		{"unknown mode", []string{"-x", "a.bmp"}},
		{"too many inputs", []string{"-w", "a.bmp", "b.bmp", "c.bmp", "d.bmp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if code := Main(h.env(tt.args...), pipeline.Software, testBuild); code != ExitFailure {
				t.Errorf("exit code: got %d, want %d", code, ExitFailure)
			}
			if !strings.Contains(h.stdout.String(), "Usage:") {
				t.Errorf("usage not printed: %q", h.stdout.String())
			}
		})
	}
}

func TestMain_Software(t *testing.T) {
	h := newHarness(t)
	a := h.bitmap(t, "one.bmp")
	b := h.bitmap(t, "two.bmp")

	if code := Main(h.env("-w", a, b), pipeline.Software, testBuild); code != ExitOK {
		t.Fatalf("exit code: got %d, want %d\n%s", code, ExitOK, h.stdout.String())
	}
	for _, name := range []string{"one_HPSoutput.bmp", "two_HPSoutput.bmp"} {
		if _, err := os.Stat(filepath.Join(h.dir, "output", name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if !strings.Contains(h.stdout.String(), "Run complete") {
		t.Errorf("console log missing summary: %q", h.stdout.String())
	}
}

func TestMain_DiagnosticsFile(t *testing.T) {
	h := newHarness(t)
	in := h.bitmap(t, "one.bmp")

	if code := Main(h.env("-o", in), pipeline.Software, testBuild); code != ExitOK {
		t.Fatalf("exit code: got %d, want %d", code, ExitOK)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("console should stay quiet with -o, got %q", h.stdout.String())
	}
	data, err := os.ReadFile(h.vars[config.EnvDiagnostics])
	if err != nil {
		t.Fatalf("diagnostics file not written: %v", err)
	}
	if !strings.Contains(string(data), "Run complete") {
		t.Errorf("diagnostics file missing summary: %q", data)
	}
}

func TestMain_BadInputAborts(t *testing.T) {
	h := newHarness(t)
	bad := filepath.Join(h.dir, "bad.bmp")
	os.WriteFile(bad, []byte("XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"), 0o644)

	if code := Main(h.env("-w", bad), pipeline.Software, testBuild); code != ExitFailure {
		t.Errorf("exit code: got %d, want %d", code, ExitFailure)
	}
}

func TestMain_BadConfig(t *testing.T) {
	h := newHarness(t)
	h.vars[config.EnvLogLevel] = "loud"
	if code := Main(h.env("-w", h.bitmap(t, "a.bmp")), pipeline.Software, testBuild); code != ExitFailure {
		t.Errorf("exit code: got %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(h.stderr.String(), config.EnvLogLevel) {
		t.Errorf("error should name the variable: %q", h.stderr.String())
	}
}

func TestMain_OffloadEmulated(t *testing.T) {
	h := newHarness(t)
	h.vars[config.EnvAccel] = config.AccelEmulate
	in := h.bitmap(t, "one.bmp")

	if code := Main(h.env("-w", in), pipeline.Offload, testBuild); code != ExitOK {
		t.Fatalf("exit code: got %d, want %d\n%s", code, ExitOK, h.stdout.String())
	}
	if _, err := os.Stat(filepath.Join(h.dir, "output", "one_FPGAoutput.bmp")); err != nil {
		t.Errorf("missing offload output: %v", err)
	}
}

func TestMain_HardwareFailure(t *testing.T) {
	h := newHarness(t)
	h.vars[config.EnvDevice] = filepath.Join(h.dir, "no-such-device")

	if code := Main(h.env("-w", h.bitmap(t, "a.bmp")), pipeline.Offload, testBuild); code != ExitHardware {
		t.Errorf("exit code: got %d, want %d", code, ExitHardware)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "output", "a_FPGAoutput.bmp")); !os.IsNotExist(err) {
		t.Error("no image should be processed without the accelerator")
	}
}

func TestMain_TransportClosedOnEveryPath(t *testing.T) {
	tests := []struct {
		name   string
		good   bool
		failOn int
		want   int
	}{
		{"success", true, 0, ExitOK},
		{"input error", false, 0, ExitFailure},
		{"accelerator failure mid-stream", true, 40, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			in := h.bitmap(t, "a.bmp")
			if !tt.good {
				in = filepath.Join(h.dir, "missing.bmp")
			}

			mock := &accel.Mock{FailOn: tt.failOn}
			env := h.env("-w", in)
			env.OpenTransport = func(config.Config) (accel.Transport, error) { return mock, nil }

			if code := Main(env, pipeline.Offload, testBuild); code != tt.want {
				t.Fatalf("exit code: got %d, want %d", code, tt.want)
			}
			if err := mock.Write(1); !errors.Is(err, accel.ErrNotConfigured) {
				t.Errorf("transport still open after run: %v", err)
			}
			if tt.failOn > 0 {
				if got := len(mock.Writes()); got != tt.failOn-1 {
					t.Errorf("accepted writes: got %d, want %d", got, tt.failOn-1)
				}
				if _, err := os.Stat(filepath.Join(h.dir, "output", "a_FPGAoutput.bmp")); !os.IsNotExist(err) {
					t.Error("no output should be written when the accelerator fails")
				}
			}
		})
	}
}
