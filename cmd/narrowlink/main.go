// Package main is the entry point for the narrowlink CLI.
package main

import (
	"fmt"
	"os"

	"github.com/dedene/narrowlink-cli/internal/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		// Usage errors were already printed by the parser.
		if cmd.ExitCode(err) != cmd.ExitUsage {
			fmt.Fprintln(os.Stderr, "narrowlink:", err)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
