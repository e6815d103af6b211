// SPDX-License-Identifier: MPL-2.0

package diag

import "fmt"

// Diagnostic is a single finding reported by a build stage.
//
// File is absolute when known. Line and Column are 1-based; zero means the
// position is unknown (global diagnostics such as configuration errors).
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Column   int
	Message  string
	// Code is the producer's identifier, e.g. "TS2322". Optional.
	Code string
	// Source names the producer ("typecheck", "bundle").
	Source string
}

// HasPosition reports whether the diagnostic points at a file location.
func (d Diagnostic) HasPosition() bool {
	return d.File != "" && d.Line > 0
}

// String renders the diagnostic without path relativisation.
func (d Diagnostic) String() string {
	switch {
	case d.HasPosition():
		return fmt.Sprintf("%s:%d:%d - %s", d.File, d.Line, max(d.Column, 1), d.Message)
	case d.File != "":
		return fmt.Sprintf("%s - %s", d.File, d.Message)
	default:
		return d.Message
	}
}
