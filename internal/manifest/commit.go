// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
)

// CommitError is returned when the output root cannot be written.
type CommitError struct {
	Path string
	Err  error
}

// Commit replaces the previous build output: the modules directory and the
// manifest are removed, then the manifest and every module script are
// written. The repository script is never written. It returns the written
// paths.
func Commit(out project.OutputLayout, m *Manifest) ([]string, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, &CommitError{Path: out.Manifest(), Err: err}
	}

	if err := os.RemoveAll(out.ModulesDir()); err != nil {
		return nil, &CommitError{Path: out.ModulesDir(), Err: err}
	}
	if err := os.Remove(out.Manifest()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &CommitError{Path: out.Manifest(), Err: err}
	}
	if err := os.MkdirAll(out.ModulesDir(), 0o755); err != nil {
		return nil, &CommitError{Path: out.ModulesDir(), Err: err}
	}

	written := make([]string, 0, len(m.scripts)+1)
	if err := os.WriteFile(out.Manifest(), data, 0o644); err != nil {
		return written, &CommitError{Path: out.Manifest(), Err: err}
	}
	written = append(written, out.Manifest())

	for _, s := range m.scripts {
		path := out.ModuleScript(s.name)
		if err := os.WriteFile(path, []byte(s.source), 0o644); err != nil {
			return written, &CommitError{Path: path, Err: err}
		}
		written = append(written, path)
	}
	return written, nil
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	return fmt.Sprintf("write %s: %v", filepath.ToSlash(e.Path), e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *CommitError) Unwrap() error { return e.Err }

// IssueID maps the error onto the catalog.
func (e *CommitError) IssueID() issue.Id { return issue.OutputWriteFailedId }
