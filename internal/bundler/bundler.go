// SPDX-License-Identifier: MPL-2.0

// Package bundler compiles every module entry and the repository descriptor
// into self-contained scripts in a single multi-entry build.
//
// Each script is an IIFE assigning the entry's exports to the global
// binding "source", so the default export is reachable as source.default.
// Compilation is all or nothing: one failing entry fails the whole build.
package bundler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/pkg/types"
)

// GlobalName is the global binding each compiled script assigns.
const GlobalName = "source"

const (
	// KindModule is a module unit.
	KindModule UnitKind = "module"
	// KindRepository is the repository descriptor unit.
	KindRepository UnitKind = "repository"
)

type (
	// UnitKind distinguishes modules from the repository descriptor.
	UnitKind string

	// Entry is one input of a build.
	Entry struct {
		// Name is the logical name; for modules, the directory name.
		Name types.ModuleName
		// Path is the absolute entry file.
		Path string
	}

	// Plan is the input of one build.
	Plan struct {
		// Root is the project root; relative imports and paths resolve from it.
		Root       string
		Modules    []Entry
		Repository string
		Minify     bool
		// Target is an ECMAScript version such as "es2017". Empty means DefaultTarget.
		Target string
	}

	// CompiledUnit is the in-memory output for one entry.
	CompiledUnit struct {
		LogicalName types.ModuleName
		Kind        UnitKind
		// Entry is the source file the unit was compiled from.
		Entry  string
		Source string
	}

	// Result holds the compiled units. Modules follow the plan order.
	Result struct {
		Repository CompiledUnit
		Modules    []CompiledUnit
		Warnings   []diag.Diagnostic
	}

	// Bundler compiles a plan.
	Bundler interface {
		Bundle(ctx context.Context, plan Plan) (Result, error)
	}

	// Error is returned when the build produced errors. No units are
	// returned alongside it.
	Error struct {
		Diagnostics []diag.Diagnostic
	}
)

// Entries returns the repository entry followed by the module entries.
func (p Plan) Entries() []Entry {
	out := make([]Entry, 0, len(p.Modules)+1)
	out = append(out, Entry{Name: types.RepositoryUnitName, Path: p.Repository})
	return append(out, p.Modules...)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return "bundling failed"
	}
	msgs := make([]string, 0, min(len(e.Diagnostics), 3))
	for _, d := range e.Diagnostics[:min(len(e.Diagnostics), 3)] {
		msgs = append(msgs, d.Message)
	}
	suffix := ""
	if extra := len(e.Diagnostics) - len(msgs); extra > 0 {
		suffix = fmt.Sprintf(" (and %d more)", extra)
	}
	return "bundling failed: " + strings.Join(msgs, "; ") + suffix
}

// IssueID maps the error onto the catalog.
func (e *Error) IssueID() issue.Id { return issue.BundleFailedId }
