// SPDX-License-Identifier: MPL-2.0

// Package diag defines the diagnostics produced by the type checker and the
// bundler, and a Bag that collects them for a single build.
package diag
