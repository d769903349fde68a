package main

import (
	"os"

	"jobboard-portal/cmd/boardctl/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	// Errors are already printed in color by the commands package.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
