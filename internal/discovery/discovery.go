// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/pkg/types"
)

type (
	// ModuleUnit is one discovered module.
	ModuleUnit struct {
		// Name is the directory name, also the logical unit name.
		Name types.ModuleName
		// Dir is the absolute module directory.
		Dir string
		// Entry is the absolute path of the module's index.ts.
		Entry string
	}

	// Options controls discovery.
	Options struct {
		// Log reports a skip notice for every directory left out.
		Log bool
		// Reporter receives skip notices. Nil discards them.
		Reporter report.Reporter
		// Concurrency bounds the parallel entry checks. Zero means GOMAXPROCS.
		Concurrency int
	}

	// Result bundles the discovered modules with the notices produced on the way.
	Result struct {
		Modules     []ModuleUnit
		Diagnostics []Diagnostic
	}

	// SourceDirError is returned when src/ cannot be listed.
	SourceDirError struct {
		Path string
		Err  error
	}

	candidate struct {
		name  string
		dir   string
		entry string
		diag  *Diagnostic
	}
)

// Discover lists the module container of layout and returns the qualifying
// module units in listing order. Finding no modules is not an error.
func Discover(ctx context.Context, layout project.Layout, opts Options) (Result, error) {
	srcDir := layout.SourceDir()
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return Result{}, &SourceDirError{Path: srcDir, Err: err}
	}

	candidates := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if ignored(e.Name()) {
			continue
		}
		if !isDirEntry(srcDir, e) {
			continue
		}
		dir := filepath.Join(srcDir, e.Name())
		candidates = append(candidates, candidate{
			name:  e.Name(),
			dir:   dir,
			entry: filepath.Join(dir, project.EntryFileName),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i].diag = check(layout, &candidates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("discover modules: %w", err)
	}

	var res Result
	for _, c := range candidates {
		if c.diag != nil {
			res.Diagnostics = append(res.Diagnostics, *c.diag)
			if opts.Log {
				report.Skip(opts.Reporter, c.dir, c.diag.Message)
			}
			continue
		}
		res.Modules = append(res.Modules, ModuleUnit{
			Name:  types.ModuleName(c.name),
			Dir:   c.dir,
			Entry: c.entry,
		})
	}
	return res, nil
}

// check returns nil when c qualifies as a module.
func check(layout project.Layout, c *candidate) *Diagnostic {
	rel := layout.Rel(c.dir)

	if ok, errs := types.ModuleName(c.name).IsValid(); !ok {
		return &Diagnostic{
			Severity: SeverityError,
			Code:     CodeInvalidName,
			Message:  fmt.Sprintf("`%s` has a reserved name. Skipping..", rel),
			Path:     c.dir,
			Cause:    errs[0],
		}
	}

	info, err := os.Stat(c.entry)
	switch {
	case err == nil && !info.IsDir():
		return nil
	case err == nil || errors.Is(err, fs.ErrNotExist):
		return &Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeEntryMissing,
			Message:  fmt.Sprintf("`%s` does not contain an %s. Skipping..", rel, project.EntryFileName),
			Path:     c.dir,
		}
	default:
		return &Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeUnreadable,
			Message:  fmt.Sprintf("`%s` could not be inspected: %v. Skipping..", rel, err),
			Path:     c.dir,
			Cause:    err,
		}
	}
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// isDirEntry follows symlinks so that linked module directories qualify.
func isDirEntry(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

// Error implements the error interface for SourceDirError.
func (e *SourceDirError) Error() string {
	return fmt.Sprintf("list module directory %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *SourceDirError) Unwrap() error { return e.Err }

// IssueID maps the error onto the catalog.
func (e *SourceDirError) IssueID() issue.Id { return issue.ProjectLayoutId }
