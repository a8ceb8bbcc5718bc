// Command omnifs serves a single-process TCP/JSON virtual filesystem
// container.
package main

import (
	"fmt"
	"os"

	"github.com/omnifs/omnifs/cmd/omnifs/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
