// Command ibocheck is the MINAO/IBO orbital-partition diagnostics CLI.
package main

import (
	"context"
	"os"

	"github.com/turtacn/ibocheck/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute already printed the error.
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
