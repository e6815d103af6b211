// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/pkg/types"
)

// DefaultTarget is the ECMAScript version scripts are lowered to.
const DefaultTarget = "es2017"

// virtualOutdir anchors output paths. Nothing is written there.
const virtualOutdir = "out"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Esbuild bundles with esbuild's Go API.
type Esbuild struct{}

// Bundle builds every entry of plan in one pass.
func (Esbuild) Bundle(ctx context.Context, plan Plan) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	target, err := ParseTarget(plan.Target)
	if err != nil {
		return Result{}, err
	}

	outdir := filepath.Join(plan.Root, virtualOutdir)
	entries := plan.Entries()
	points := make([]api.EntryPoint, 0, len(entries))
	byOutput := make(map[string]Entry, len(entries))
	for _, e := range entries {
		out := outputPath(e.Name)
		points = append(points, api.EntryPoint{InputPath: e.Path, OutputPath: out})
		byOutput[filepath.Join(outdir, filepath.FromSlash(out))+".js"] = e
	}

	res := api.Build(api.BuildOptions{
		EntryPointsAdvanced: points,
		AbsWorkingDir:       plan.Root,
		Outdir:              outdir,
		Bundle:              true,
		Write:               false,
		Format:              api.FormatIIFE,
		GlobalName:          GlobalName,
		Platform:            api.PlatformNeutral,
		MainFields:          []string{"module", "main"},
		Target:              target,
		MinifyWhitespace:    plan.Minify,
		MinifyIdentifiers:   plan.Minify,
		MinifySyntax:        plan.Minify,
		LogLevel:            api.LogLevelSilent,
		Charset:             api.CharsetUTF8,
	})

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	warnings := convertMessages(res.Warnings, diag.SevWarning, plan.Root)
	if len(res.Errors) > 0 {
		return Result{}, &Error{Diagnostics: convertMessages(res.Errors, diag.SevError, plan.Root)}
	}

	units := make(map[types.ModuleName]CompiledUnit, len(entries))
	for _, f := range res.OutputFiles {
		e, ok := byOutput[f.Path]
		if !ok {
			continue
		}
		kind := KindModule
		if e.Name == types.RepositoryUnitName {
			kind = KindRepository
		}
		units[e.Name] = CompiledUnit{
			LogicalName: e.Name,
			Kind:        kind,
			Entry:       e.Path,
			Source:      string(f.Contents),
		}
	}

	out := Result{Warnings: warnings}
	for _, e := range entries {
		u, ok := units[e.Name]
		if !ok {
			return Result{}, &Error{Diagnostics: []diag.Diagnostic{{
				Severity: diag.SevError,
				File:     e.Path,
				Message:  fmt.Sprintf("no output produced for %s", e.Name),
				Source:   "bundle",
			}}}
		}
		if u.Kind == KindRepository {
			out.Repository = u
			continue
		}
		out.Modules = append(out.Modules, u)
	}
	return out, nil
}

// ParseTarget maps an ECMAScript version name onto an esbuild target.
func ParseTarget(s string) (api.Target, error) {
	if s == "" {
		s = DefaultTarget
	}
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unsupported bundle target %q", s)
	}
	return t, nil
}

// outputPath keeps module units and the repository unit in separate
// namespaces: modules/<name> and __repository.
func outputPath(name types.ModuleName) string {
	if name == types.RepositoryUnitName {
		return string(name)
	}
	return path.Join(project.ModulesDirName, string(name))
}

func convertMessages(msgs []api.Message, sev diag.Severity, root string) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		d := diag.Diagnostic{
			Severity: sev,
			Message:  m.Text,
			Code:     m.ID,
			Source:   "bundle",
		}
		if loc := m.Location; loc != nil {
			file := loc.File
			if file != "" && !filepath.IsAbs(file) {
				file = filepath.Join(root, filepath.FromSlash(file))
			}
			d.File = file
			d.Line = loc.Line
			d.Column = loc.Column + 1
		}
		out = append(out, d)
	}
	return out
}
