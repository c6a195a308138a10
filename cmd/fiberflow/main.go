package main

import (
	"fmt"
	"os"

	"github.com/corewell/fiberflow/cmd/fiberflow/internal/app"
)

// Build-time variables (set via ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	a := app.New()
	a.SetVersion(version, commit, date)

	if err := a.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
