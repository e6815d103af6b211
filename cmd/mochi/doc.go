// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the mochi command-line interface.
//
// The root command is built by NewRootCommand around an App, which carries
// the configuration provider, the type checker, the bundler and the output
// streams. Commands translate arguments and configuration into pipeline
// requests and render results and errors.
package cmd
