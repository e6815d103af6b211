// SPDX-License-Identifier: MPL-2.0

package typecheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/report"
)

// FailureMessage is the summary of a failed check.
const FailureMessage = "This project has errors. Please resolve them before bundling."

type (
	// Program is one type-check invocation.
	Program struct {
		// Root is the project root; relative paths in the options resolve against it.
		Root string
		// Files are the absolute entry files, modules first, then the repository descriptor.
		Files []string
		// Options are the effective compiler options, already forced.
		Options CompilerOptions
	}

	// Checker type-checks a program and returns every diagnostic it produced.
	// An error return means the checker itself could not run.
	Checker interface {
		Check(ctx context.Context, p Program) ([]diag.Diagnostic, error)
	}

	// CheckerFunc adapts a function to Checker.
	CheckerFunc func(ctx context.Context, p Program) ([]diag.Diagnostic, error)

	// Error is returned when the program has at least one error diagnostic.
	Error struct {
		Diagnostics []diag.Diagnostic
	}
)

// Check calls f(ctx, p).
func (f CheckerFunc) Check(ctx context.Context, p Program) ([]diag.Diagnostic, error) {
	return f(ctx, p)
}

// Run checks p, reports every diagnostic in order and returns *Error when
// any of them is an error. Diagnostics are returned in all cases.
func Run(ctx context.Context, c Checker, p Program, r report.Reporter) ([]diag.Diagnostic, error) {
	ds, err := c.Check(ctx, p)
	if err != nil {
		return nil, err
	}
	for i := range ds {
		ds[i].Source = "typecheck"
	}
	report.Diagnostics(r, ds)

	bag := diag.NewBag(ds...)
	if bag.HasErrors() {
		return ds, &Error{Diagnostics: bag.Errors()}
	}
	return ds, nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	n := len(e.Diagnostics)
	noun := "errors"
	if n == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%s (%d %s)", strings.TrimSuffix(FailureMessage, "."), n, noun)
}

// IssueID maps the error onto the catalog.
func (e *Error) IssueID() issue.Id { return issue.TypeCheckFailedId }
