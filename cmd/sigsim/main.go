// sigsim CLI - command-line interface for the signing-workflow simulation engine
package main

import (
	"github.com/getsigsim/sigsim/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
