// cmd/waypoint/main.go
//
// Entry point for the waypoint CLI. Running `waypoint` with no arguments opens
// the interactive wizard in the current directory; the subcommands expose the
// same resolver, scanner and packet compiler for scripting.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
