// SPDX-License-Identifier: MPL-2.0

// Package config loads the optional project configuration.
//
// Settings come from, in increasing precedence: built-in defaults, the CUE
// file mochi.cue at the project root (or an explicit --config file), and
// MOCHI_* environment variables such as MOCHI_SERVE_PORT. The file is
// validated against the embedded schema in config_schema.cue before it is
// merged into Viper.
package config
