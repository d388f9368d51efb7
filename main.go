// Package main is the entry point for the caseform CLI.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/caseform/cmd"
	"github.com/danielolaszy/caseform/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logging.Debug("starting caseform", "version", version)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
