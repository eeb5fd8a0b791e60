// Command skate-sessions runs the skate session tracker.
package main

import (
	"fmt"
	"os"

	"github.com/justestif/skate-sessions/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
