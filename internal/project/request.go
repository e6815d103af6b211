// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidBuildRequest is the sentinel wrapped by InvalidBuildRequestError.
var ErrInvalidBuildRequest = errors.New("invalid build request")

type (
	// BuildRequest is the immutable input of one pipeline run.
	BuildRequest struct {
		// SourceRoot is the project root.
		SourceRoot string
		// OutputRoot receives the manifest, the module scripts and the site.
		// Empty means <SourceRoot>/dist.
		OutputRoot string
		// EmitSite renders index.html after a successful commit.
		EmitSite bool
		// DevServe builds for the dev server: no minification and no type check.
		DevServe bool
		// TypeCheck runs the type checker before bundling. Ignored when DevServe is set.
		TypeCheck bool
		// Minify overrides minification. Nil means "minify unless DevServe".
		Minify *bool
	}

	// InvalidBuildRequestError collects field errors of a BuildRequest.
	InvalidBuildRequestError struct {
		FieldErrors []error
	}
)

// Normalized returns a copy with OutputRoot defaulted and DevServe applied.
func (r BuildRequest) Normalized() BuildRequest {
	if r.SourceRoot == "" {
		r.SourceRoot = "."
	}
	if r.OutputRoot == "" {
		r.OutputRoot = filepath.Join(r.SourceRoot, DefaultOutputDirName)
	}
	if r.DevServe {
		r.TypeCheck = false
	}
	return r
}

// ShouldMinify reports whether bundles are minified.
func (r BuildRequest) ShouldMinify() bool {
	if r.Minify != nil {
		return *r.Minify
	}
	return !r.DevServe
}

// IsValid checks that the output root does not contain the source tree.
func (r BuildRequest) IsValid() (bool, []error) {
	n := r.Normalized()
	var errs []error

	src, err := filepath.Abs(n.SourceRoot)
	if err != nil {
		errs = append(errs, fmt.Errorf("source root: %w", err))
	}
	out, err := filepath.Abs(n.OutputRoot)
	if err != nil {
		errs = append(errs, fmt.Errorf("output root: %w", err))
	}
	if len(errs) == 0 {
		if out == src {
			errs = append(errs, fmt.Errorf("output root %s must differ from the source root", out))
		} else if srcDir := filepath.Join(src, SourceDirName); out == srcDir || isWithin(srcDir, out) {
			errs = append(errs, fmt.Errorf("output root %s must not be inside %s", out, srcDir))
		}
	}

	if len(errs) > 0 {
		return false, []error{&InvalidBuildRequestError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBuildRequestError.
func (e *InvalidBuildRequestError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid build request: " + e.FieldErrors[0].Error()
	}
	return fmt.Sprintf("invalid build request: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidBuildRequest.
func (e *InvalidBuildRequestError) Unwrap() error { return ErrInvalidBuildRequest }

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && rel != "." && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && rel[2] == filepath.Separator
}
