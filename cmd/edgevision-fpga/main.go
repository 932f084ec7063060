package main

import (
	"os"

	"github.com/ironsheep/edgevision/internal/cli"
	"github.com/ironsheep/edgevision/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// The offload binary needs read/write access to /dev/mem, normally root.
func main() {
	env := cli.Env{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
	}
	os.Exit(cli.Main(env, pipeline.Offload, cli.Build{
		Name:      "edgevision-fpga",
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}))
}
