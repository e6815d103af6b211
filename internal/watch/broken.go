// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"slices"
	"syscall"
)

// BrokenError is returned by Run when the underlying watcher can no longer
// deliver events. Restarting the process (or raising the OS limit) is the
// only way out.
type BrokenError struct {
	Err error
}

// Error implements the error interface.
func (e *BrokenError) Error() string {
	return "watch: file watcher stopped delivering changes: " + e.Err.Error()
}

// Unwrap returns the OS error.
func (e *BrokenError) Unwrap() error { return e.Err }

// isBroken reports whether err is one of the platform's unrecoverable
// watcher errors.
func isBroken(err error) bool {
	return slices.ContainsFunc(brokenErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}
