// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures for tests: throwaway module
// repositories on disk and a controllable clock.
package testutil
