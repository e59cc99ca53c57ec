// Package main is the entry point for modgraph, which boots the demo application in a
// container and reports on it.
package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
