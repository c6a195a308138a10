// Package app wires the fiberflow demo CLI: a cobra root command plus
// subcommands that run a live create/transform pipeline and, on a TTY,
// render its backpressure behavior through a bubbletea dashboard.
package app

import (
	"context"

	"github.com/spf13/cobra"
)

// App holds the CLI's wired dependencies.
type App struct {
	rootCmd *cobra.Command

	configPath string
	noTUI      bool
	logLevel   string

	cancel   context.CancelFunc
	shutdown chan struct{}

	version string
	commit  string
	date    string
}

// New builds the fiberflow CLI application.
func New() *App {
	a := &App{shutdown: make(chan struct{})}
	a.setupRootCmd()
	a.rootCmd.AddCommand(NewVersionCmd(a))
	a.rootCmd.AddCommand(NewDemoCreateCmd(a))
	a.rootCmd.AddCommand(NewDemoTransformCmd(a))
	return a
}

// Execute runs the CLI.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion records build-time version metadata for the version command.
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "fiberflow",
		Short: "Reactive-streams-to-fiber bridge demo",
		Long: `fiberflow bridges a reactive-streams dataflow model with a
goroutine-based cooperative task model. This binary demonstrates the
create and transform operators end to end, including their
backpressure behavior.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "fiberflow.yaml",
		"Path to a pipelineconfig YAML file")
	a.rootCmd.PersistentFlags().BoolVar(&a.noTUI, "no-tui", false,
		"Disable the interactive dashboard even when stdout is a TTY")
	a.rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error, disabled)")
}
