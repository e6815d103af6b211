// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mochi/mochi-cli/internal/pipeline"
	"github.com/mochi/mochi-cli/pkg/types"
)

// ExitError carries the process exit code out of a RunE handler so that
// Execute, not the handler, calls os.Exit.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the cause's message, or the exit status when there is none.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the cause.
func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeFor maps a command error to an exit code. A stage of the build
// failing is ExitBuildFailed; usage, configuration and I/O problems outside
// the pipeline, as well as interrupted builds, are ExitFailure.
func exitCodeFor(err error) types.ExitCode {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) && !errors.Is(err, context.Canceled) {
		return types.ExitBuildFailed
	}
	return types.ExitFailure
}
