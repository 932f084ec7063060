// Package config reads run settings from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edgevision/internal/accel"
)

// Environment variables.
const (
	EnvLogLevel     = "EDGEVISION_LOG_LEVEL"
	EnvOutputDir    = "EDGEVISION_OUTPUT_DIR"
	EnvDevice       = "EDGEVISION_DEVICE"
	EnvAccel        = "EDGEVISION_ACCEL"
	EnvPreview      = "EDGEVISION_PREVIEW"
	EnvPreviewWidth = "EDGEVISION_PREVIEW_WIDTH"
	EnvDiagnostics  = "EDGEVISION_DIAGNOSTICS_FILE"
)

// Accelerator backends for the offload binary.
const (
	AccelFPGA     = "fpga"
	AccelEmulate  = "emulate"
	DefaultOutput = "output"
)

// Config holds every setting the CLI needs.
type Config struct {
	LogLevel     logrus.Level
	OutputDir    string
	Device       string
	Accel        string
	Preview      bool
	PreviewWidth int

	// Diagnostics overrides the log file used with -o. Empty selects the
	// per-mode default.
	Diagnostics string
}

// Load builds a Config from getenv, usually os.Getenv. Unset variables take
// their defaults; malformed ones are reported by name.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		LogLevel:  logrus.InfoLevel,
		OutputDir: DefaultOutput,
		Device:    accel.DefaultDevice,
		Accel:     AccelFPGA,
	}

	if v := getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v := getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv(EnvDevice); v != "" {
		cfg.Device = v
	}
	if v := getenv(EnvAccel); v != "" {
		switch strings.ToLower(v) {
		case AccelFPGA, AccelEmulate:
			cfg.Accel = strings.ToLower(v)
		default:
			return cfg, fmt.Errorf("%s: unknown accelerator %q (want %s or %s)", EnvAccel, v, AccelFPGA, AccelEmulate)
		}
	}
	if v := getenv(EnvPreview); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvPreview, err)
		}
		cfg.Preview = b
	}
	if v := getenv(EnvPreviewWidth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("%s: invalid width %q", EnvPreviewWidth, v)
		}
		cfg.PreviewWidth = n
	}
	cfg.Diagnostics = getenv(EnvDiagnostics)

	return cfg, nil
}

// AccelConfig returns the register window layout with the configured device.
func (c Config) AccelConfig() accel.Config {
	ac := accel.DefaultConfig()
	ac.Device = c.Device
	return ac
}
