// Package obslog wires the ambient logging stack for fiberflow, built on
// zerolog: named fields and leveled calls through zerolog's event
// builder.
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Nop returns a logger that discards everything. This is the package
// default so importing fiberflow never prints unsolicited output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// NewConsole returns a human-readable console logger writing to stderr,
// used by the cmd/fiberflow demo when no log file is configured.
func NewConsole(level zerolog.Level) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewRotating returns a JSON logger that writes through a lumberjack
// rotating file, for long-running hosts of the demo CLI where unbounded
// log growth would otherwise be a problem.
func NewRotating(path string, level zerolog.Level) zerolog.Logger {
	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
