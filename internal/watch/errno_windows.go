// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// Win32 codes after which ReadDirectoryChangesW cannot continue:
// ERROR_TOO_MANY_OPEN_FILES, ERROR_INVALID_HANDLE (watched directory gone)
// and ERROR_NOT_ENOUGH_MEMORY.
var brokenErrnos = []syscall.Errno{4, 6, 8}
