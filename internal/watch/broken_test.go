// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

func TestIsBroken(t *testing.T) {
	t.Parallel()

	for _, errno := range brokenErrnos {
		if !isBroken(errno) {
			t.Errorf("isBroken(%v) = false, want true", errno)
		}
		if !isBroken(fmt.Errorf("fsnotify: %w", errno)) {
			t.Errorf("isBroken(wrapped %v) = false, want true", errno)
		}
	}

	for _, err := range []error{
		syscall.Errno(0),
		os.ErrPermission,
		errors.New("read error"),
	} {
		if isBroken(err) {
			t.Errorf("isBroken(%v) = true, want false", err)
		}
	}
}

func TestBrokenError(t *testing.T) {
	t.Parallel()

	err := &BrokenError{Err: brokenErrnos[0]}
	if !errors.Is(err, brokenErrnos[0]) {
		t.Error("BrokenError should unwrap to the errno")
	}
	var target *BrokenError
	if !errors.As(fmt.Errorf("serve: %w", err), &target) {
		t.Error("errors.As should find BrokenError")
	}
}
