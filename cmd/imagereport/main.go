// Package main is the entry point for the imagereport CLI.
package main

import (
	"os"

	"github.com/donaldgifford/imagereport/cmd"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd.SetVersionInfo(version, commit)

	if err := cmd.Execute(); err != nil {
		return 1
	}

	return 0
}
