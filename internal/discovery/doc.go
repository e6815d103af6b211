// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the module units of a repository: the immediate
// subdirectories of src/ that contain an index.ts entry file.
//
// Directories without an entry file are skipped with a notice. Hidden
// directories and node_modules are ignored silently. Results always follow
// the directory listing order even though the entry checks run concurrently.
package discovery
