// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// RepositoryUnitName is the logical name reserved for the repository
// descriptor's compiled unit. It can never be a module directory name.
const RepositoryUnitName ModuleName = "__repository"

// ErrInvalidModuleName is the sentinel error wrapped by InvalidModuleNameError.
var ErrInvalidModuleName = errors.New("invalid module name")

type (
	// ModuleName is the directory name of a module under src/. It is also
	// the logical name of the module's compiled unit and the base name of
	// its output script.
	ModuleName string

	// InvalidModuleNameError explains why a ModuleName was rejected.
	InvalidModuleNameError struct {
		Value  ModuleName
		Reason string
	}
)

func (n ModuleName) String() string { return string(n) }

// IsValid rejects empty names, path separators, dot names, and the
// reserved "__" prefix.
func (n ModuleName) IsValid() (bool, []error) {
	s := string(n)
	var reason string
	switch {
	case strings.TrimSpace(s) == "":
		reason = "must be non-empty"
	case strings.ContainsAny(s, `/\`):
		reason = "must not contain path separators"
	case s == "." || s == "..":
		reason = "must not be a relative path element"
	case strings.HasPrefix(s, "__"):
		reason = "the __ prefix is reserved"
	default:
		return true, nil
	}
	return false, []error{&InvalidModuleNameError{Value: n, Reason: reason}}
}

// Error implements the error interface for InvalidModuleNameError.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidModuleName.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }
