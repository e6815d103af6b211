// SPDX-License-Identifier: MPL-2.0

package diag

import (
	"errors"
	"fmt"
)

const (
	// SevInfo is an informational message.
	SevInfo Severity = iota
	// SevSuggestion is an optional improvement reported by the checker.
	SevSuggestion
	// SevWarning does not stop the build.
	SevWarning
	// SevError stops the build before anything is written.
	SevError
)

// ErrInvalidSeverity is the sentinel wrapped by InvalidSeverityError.
var ErrInvalidSeverity = errors.New("invalid severity")

type (
	// Severity orders diagnostics from informational to fatal.
	Severity uint8

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevSuggestion:
		return "suggestion"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// IsValid reports whether s is one of the defined severities.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SevInfo, SevSuggestion, SevWarning, SevError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// ParseSeverity maps a category word as printed by tsc or esbuild onto a
// Severity. Unknown words map to SevInfo.
func ParseSeverity(word string) Severity {
	switch word {
	case "error", "fatal":
		return SevError
	case "warning", "warn":
		return SevWarning
	case "suggestion":
		return SevSuggestion
	default:
		return SevInfo
	}
}

// Error implements the error interface for InvalidSeverityError.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %d (valid: 0=info, 1=suggestion, 2=warning, 3=error)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }
