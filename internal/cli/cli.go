// Package cli implements the command line shared by the edgevision binaries.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edgevision/internal/accel"
	"github.com/ironsheep/edgevision/internal/config"
	"github.com/ironsheep/edgevision/internal/pipeline"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitHardware = 2
)

const (
	minInputs = 1
	maxInputs = 3
)

// Build identifies the binary for --version.
type Build struct {
	Name      string
	Version   string
	BuildTime string
	GitCommit string
}

// Env is the process environment a run sees.
type Env struct {
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// OpenTransport overrides how the offload binary reaches the accelerator.
	OpenTransport func(config.Config) (accel.Transport, error)
}

// Main runs the command and returns its exit code.
func Main(env Env, mode pipeline.Mode, build Build) int {
	args := env.Args
	if len(args) > 1 {
		switch args[1] {
		case "--version", "-v", "version":
			fmt.Fprintf(env.Stdout, "%s %s\n", build.Name, build.Version)
			fmt.Fprintf(env.Stdout, "  Build time: %s\n", build.BuildTime)
			fmt.Fprintf(env.Stdout, "  Git commit: %s\n", build.GitCommit)
			return ExitOK
		case "--help", "-h", "help":
			printHelp(env.Stdout, build.Name, mode)
			return ExitOK
		}
	}

	if len(args) < 2+minInputs || len(args) > 2+maxInputs || (args[1] != "-o" && args[1] != "-w") {
		printUsage(env.Stdout, programName(args, build))
		return ExitFailure
	}

	cfg, err := config.Load(env.Getenv)
	if err != nil {
		fmt.Fprintf(env.Stderr, "configuration error: %v\n", err)
		return ExitFailure
	}

	out := env.Stdout
	toFile := args[1] == "-o"
	if toFile {
		path := cfg.Diagnostics
		if path == "" {
			path = mode.DiagnosticsFile()
		}
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(env.Stderr, "failed to redirect output: %v\n", err)
			return ExitFailure
		}
		defer f.Close()
		out = f
	}
	logger := initLogger(out, cfg.LogLevel, toFile)
	logger.WithFields(logrus.Fields{
		"version": build.Version,
		"mode":    mode.String(),
		"inputs":  len(args) - 2,
	}).Debug("Starting edge detection")

	runner := &pipeline.Runner{
		Mode:         mode,
		OutputDir:    cfg.OutputDir,
		Preview:      cfg.Preview,
		PreviewWidth: cfg.PreviewWidth,
		Logger:       logger,
	}

	var offload *pipeline.OffloadEngine
	switch mode {
	case pipeline.Offload:
		open := env.OpenTransport
		if open == nil {
			open = OpenTransport
		}
		t, err := open(cfg)
		if err != nil {
			logger.WithError(err).Error("Accelerator configuration failed")
			return ExitHardware
		}
		// Released once on every path out of the run.
		defer func() {
			if err := t.Close(); err != nil {
				logger.WithError(err).Warn("Accelerator cleanup failed")
			}
		}()
		offload = &pipeline.OffloadEngine{Transport: t}
		runner.Engine = offload
	default:
		runner.Engine = pipeline.SoftwareEngine{}
	}

	report, err := runner.Run(args[2:])
	if err != nil {
		logger.WithError(err).Error("Processing aborted")
		return ExitFailure
	}

	fields := logrus.Fields{
		"images":  len(report.Results),
		"runtime": report.Total.Seconds(),
	}
	if offload != nil {
		fields["requests"] = offload.Requests
	}
	logger.WithFields(fields).Info("Run complete")
	return ExitOK
}

// OpenTransport opens the accelerator selected by cfg.Accel.
func OpenTransport(cfg config.Config) (accel.Transport, error) {
	if cfg.Accel == config.AccelEmulate {
		return accel.NewEmulator(), nil
	}
	return accel.Open(cfg.AccelConfig())
}

// initLogger follows the console/file split: colored text with full
// timestamps on a terminal, plain text in the diagnostics file.
func initLogger(out io.Writer, level logrus.Level, toFile bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: toFile,
	})
	return logger
}

func programName(args []string, build Build) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return build.Name
}

func printUsage(w io.Writer, prog string) {
	fmt.Fprintf(w, "Error: Program accepts minimum %d and maximum %d input files\n", minInputs, maxInputs)
	fmt.Fprintf(w, "Usage: %s -o/-w input1.bmp [input2.bmp input3.bmp]\n", prog)
	fmt.Fprintf(w, "Example: %s -o/-w image.bmp\n", prog)
	fmt.Fprintf(w, "Example: %s -o/-w image1.bmp image2.bmp image3.bmp\n", prog)
}

func printHelp(w io.Writer, name string, mode pipeline.Mode) {
	fmt.Fprintf(w, "%s - Sobel edge detection for uncompressed BMP images\n", name)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Usage: %s -o|-w input1.bmp [input2.bmp input3.bmp]\n", name)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintf(w, "  -o               Write diagnostics to %s\n", mode.DiagnosticsFile())
	fmt.Fprintln(w, "  -w               Write diagnostics to the console")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug        Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=dir         Output directory (default %s)\n", config.EnvOutputDir, config.DefaultOutput)
	fmt.Fprintf(w, "  %s=true          Also write a PNG preview\n", config.EnvPreview)
	fmt.Fprintf(w, "  %s=N       Preview width in pixels\n", config.EnvPreviewWidth)
	fmt.Fprintf(w, "  %s=path    Diagnostics file used with -o\n", config.EnvDiagnostics)
	if mode == pipeline.Offload {
		fmt.Fprintf(w, "  %s=path           Memory device (default %s)\n", config.EnvDevice, accel.DefaultDevice)
		fmt.Fprintf(w, "  %s=fpga|emulate    Accelerator backend\n", config.EnvAccel)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Outputs are written as <name>%s.bmp.\n", mode.Tag())
}
