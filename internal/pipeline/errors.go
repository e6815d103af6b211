// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/report"
)

var (
	// ErrPipelineBusy is the sentinel wrapped by BusyError.
	ErrPipelineBusy = errors.New("a build is already running for this output directory")

	// ErrMissingRepository is the sentinel wrapped by MissingRepositoryError.
	ErrMissingRepository = errors.New("repository descriptor not found")
)

type (
	// BusyError is returned when another run holds the output directory.
	BusyError struct {
		Output string
	}

	// MissingRepositoryError is returned when src/index.ts does not exist.
	MissingRepositoryError struct {
		Path string
	}

	// StageError attributes a fatal error to the stage that produced it.
	StageError struct {
		Stage report.Stage
		Err   error
	}
)

// Error implements the error interface.
func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPipelineBusy, e.Output)
}

// Unwrap returns ErrPipelineBusy.
func (e *BusyError) Unwrap() error { return ErrPipelineBusy }

// IssueID maps the error onto the catalog.
func (e *BusyError) IssueID() issue.Id { return issue.BuildInProgressId }

// Error implements the error interface.
func (e *MissingRepositoryError) Error() string {
	return fmt.Sprintf("`%s` does not exist; the repository descriptor must default-export the repository metadata", e.Path)
}

// Unwrap returns ErrMissingRepository.
func (e *MissingRepositoryError) Unwrap() error { return ErrMissingRepository }

// IssueID maps the error onto the catalog.
func (e *MissingRepositoryError) IssueID() issue.Id { return issue.RepositoryContractId }

// Error implements the error interface.
func (e *StageError) Error() string { return e.Err.Error() }

// Unwrap returns the stage's error.
func (e *StageError) Unwrap() error { return e.Err }
