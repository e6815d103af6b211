// SPDX-License-Identifier: MPL-2.0

package typecheck

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/tailscale/hujson"

	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
)

// CompilerOptions is the "compilerOptions" object of a tsconfig.json.
type CompilerOptions map[string]any

// forced is applied over the project's options on every check.
var forced = CompilerOptions{
	"noEmit":           true,
	"strict":           true,
	"esModuleInterop":  true,
	"moduleResolution": "node",
	"isolatedModules":  true,
}

// LoadCompilerOptions reads compilerOptions from the project's tsconfig.json.
// The file may contain comments and trailing commas. A missing file yields
// empty options; an unreadable or malformed one is reported as a warning and
// also yields empty options.
func LoadCompilerOptions(layout project.Layout, r report.Reporter) CompilerOptions {
	opts, err := readCompilerOptions(layout.CompilerConfig())
	switch {
	case err == nil:
		return opts
	case errors.Is(err, fs.ErrNotExist):
		return CompilerOptions{}
	default:
		report.Warnf(r, "there was an error retrieving tsconfig.json, using default tsconfig instead. reason: %v", err)
		return CompilerOptions{}
	}
}

func readCompilerOptions(path string) (CompilerOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", project.CompilerConfigName, err)
	}
	var cfg struct {
		CompilerOptions CompilerOptions `json:"compilerOptions"`
	}
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", project.CompilerConfigName, err)
	}
	if cfg.CompilerOptions == nil {
		return CompilerOptions{}, nil
	}
	return cfg.CompilerOptions, nil
}

// ForceOptions returns a copy of opts with the mandatory options applied.
func ForceOptions(opts CompilerOptions) CompilerOptions {
	out := make(CompilerOptions, len(opts)+len(forced))
	maps.Copy(out, opts)
	maps.Copy(out, forced)
	return out
}
