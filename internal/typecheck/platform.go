// SPDX-License-Identifier: MPL-2.0

package typecheck

import "runtime"

func isWindows() bool { return runtime.GOOS == "windows" }
