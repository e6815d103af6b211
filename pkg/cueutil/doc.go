// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema and
// formats CUE errors with JSON-path prefixes.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	res, err := cueutil.ParseAndDecodeString[map[string]any](
//	    schema, data, "#Config",
//	    cueutil.WithFilename("mochi.cue"),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
