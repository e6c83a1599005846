package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/erratas/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	version := Version
	if Commit != "unknown" {
		version = fmt.Sprintf("%s (%s)", Version, Commit)
	}

	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
