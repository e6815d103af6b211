// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a skipped candidate.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a candidate that can never be a module.
	SeverityError Severity = "error"

	// CodeEntryMissing is reported for a directory without index.ts.
	CodeEntryMissing = "entry_missing"
	// CodeInvalidName is reported for a directory whose name is reserved.
	CodeInvalidName = "invalid_module_name"
	// CodeUnreadable is reported when a candidate cannot be inspected.
	CodeUnreadable = "unreadable"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a structured discovery notice returned to callers rather
	// than written to stderr.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier, e.g. "entry_missing".
		Code    string
		Message string
		// Path is the candidate directory.
		Path  string
		Cause error
	}
)
