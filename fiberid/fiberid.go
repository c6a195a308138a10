// Package fiberid stamps each spawned pipeline with a stable identifier
// used in log fields and as the TUI dashboard's row key.
// github.com/google/uuid already reaches this module transitively via
// bubbletea; fiberflow promotes it to a direct dependency since the
// fiber/pipeline identity is a real domain need, not decoration.
package fiberid

import "github.com/google/uuid"

// ID uniquely names one create or transform pipeline instance for the
// lifetime of the process.
type ID string

// New mints a fresh pipeline ID.
func New() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}
