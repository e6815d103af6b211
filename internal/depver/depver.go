// SPDX-License-Identifier: MPL-2.0

// Package depver resolves the installed version of the @mochi/js runtime
// support package. Every module in the manifest is stamped with it.
package depver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
)

// PackageName is the runtime support package.
const PackageName = "@mochi/js"

// ErrVersionNotFound is wrapped by ResolutionError when the descriptor
// exists but has no usable version field.
var ErrVersionNotFound = errors.New("version field missing")

type (
	// ResolutionError is returned when the version cannot be determined.
	ResolutionError struct {
		Path string
		Err  error
	}

	packageDescriptor struct {
		Name    string          `json:"name"`
		Version json.RawMessage `json:"version"`
	}
)

// Resolve reads node_modules/@mochi/js/package.json under the project root
// and returns its version string. A version that is not valid semver is
// returned as-is with a warning.
func Resolve(layout project.Layout, r report.Reporter) (string, error) {
	path := layout.RuntimePackage()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ResolutionError{Path: path, Err: err}
	}

	var pkg packageDescriptor
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", &ResolutionError{Path: path, Err: err}
	}

	var version string
	if len(pkg.Version) == 0 || json.Unmarshal(pkg.Version, &version) != nil {
		return "", &ResolutionError{Path: path, Err: ErrVersionNotFound}
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return "", &ResolutionError{Path: path, Err: ErrVersionNotFound}
	}

	if !IsSemver(version) {
		report.Warnf(r, "%s version %q is not a semantic version", PackageName, version)
	}
	return version, nil
}

// IsSemver reports whether v is a semantic version, with or without a
// leading "v".
func IsSemver(v string) bool {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v)
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to find %s version in %s: %v", PackageName, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error { return e.Err }

// IssueID maps the error onto the catalog.
func (e *ResolutionError) IssueID() issue.Id { return issue.RuntimeDependencyMissingId }
