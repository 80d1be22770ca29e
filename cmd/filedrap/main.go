package main

import (
	"os"

	"github.com/justyntemme/filedrap/internal/cli"
)

// Set by -ldflags at release time
var (
	version   = "v0.1.0-dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
