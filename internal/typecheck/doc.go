// SPDX-License-Identifier: MPL-2.0

// Package typecheck runs the TypeScript compiler over every module entry and
// the repository descriptor before anything is bundled.
//
// The project's tsconfig.json is honored, but a fixed set of options is
// always forced on top of it (see ForceOptions). Any error diagnostic stops
// the build; warnings, suggestions and messages are only reported.
package typecheck
