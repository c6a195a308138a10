// Package pipelineconfig loads the tunables a pipeline operator wants to
// set without recompiling: worker pool size, prefetch, and log
// verbosity: yaml.v3 unmarshalled over a defaulted struct, falling back
// silently to defaults when the file is absent.
package pipelineconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options are the knobs create/transform pipelines are built from.
type Options struct {
	// Prefetch is the default TransformCore prefetch window when a
	// component doesn't specify its own.
	Prefetch int `yaml:"prefetch"`

	// MaxWorkers sizes the scheduler.Pool backing the pipeline.
	MaxWorkers int `yaml:"max_workers"`

	// LogLevel is parsed with zerolog.ParseLevel ("debug", "info",
	// "warn", "error", "disabled").
	LogLevel string `yaml:"log_level"`

	// LogFile, if set, routes logs through a rotating lumberjack
	// writer instead of stderr.
	LogFile string `yaml:"log_file"`
}

const (
	DefaultPrefetch   = 16
	DefaultMaxWorkers = 4
	DefaultLogLevel   = "info"
)

// DefaultOptions returns the configuration used when no file is present.
func DefaultOptions() *Options {
	return &Options{
		Prefetch:   DefaultPrefetch,
		MaxWorkers: DefaultMaxWorkers,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads a yaml Options document from path. A missing file is not an
// error: it yields DefaultOptions(). A present-but-invalid file is.
func Load(path string) (*Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pipelineconfig: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("pipelineconfig: parsing %s: %w", path, err)
	}
	if opts.Prefetch < 1 {
		opts.Prefetch = DefaultPrefetch
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.LogLevel == "" {
		opts.LogLevel = DefaultLogLevel
	}
	return opts, nil
}
