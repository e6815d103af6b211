// SPDX-License-Identifier: MPL-2.0

// Package project describes where things live in a module repository and
// what a single build is asked to do.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SourceDirName holds the module directories and the repository descriptor.
	SourceDirName = "src"
	// EntryFileName is the entry file every module directory must contain.
	EntryFileName = "index.ts"
	// CompilerConfigName is the optional TypeScript compiler configuration.
	CompilerConfigName = "tsconfig.json"
	// DefaultOutputDirName is used when no output root is given.
	DefaultOutputDirName = "dist"
	// ModulesDirName is the directory of compiled module scripts under the output root.
	ModulesDirName = "modules"
	// ManifestFileName is written at the output root.
	ManifestFileName = "Manifest.json"
	// SiteFileName is the optional rendered page at the output root.
	SiteFileName = "index.html"
	// ModuleScriptExt is the extension of compiled module scripts.
	ModuleScriptExt = ".js"
)

// runtimePackagePath is the runtime support package descriptor, relative to the root.
var runtimePackagePath = filepath.Join("node_modules", "@mochi", "js", "package.json")

// ErrNotADirectory is returned when the project root is not a directory.
var ErrNotADirectory = errors.New("not a directory")

// Layout derives every well-known path from a project root.
type Layout struct {
	root string
}

// NewLayout resolves root to an absolute path and checks that it is a directory.
func NewLayout(root string) (Layout, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve project root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Layout{}, fmt.Errorf("open project root: %w", err)
	}
	if !info.IsDir() {
		return Layout{}, fmt.Errorf("project root %s: %w", abs, ErrNotADirectory)
	}
	return Layout{root: abs}, nil
}

// Root is the absolute project root.
func (l Layout) Root() string { return l.root }

// SourceDir is the module container, <root>/src.
func (l Layout) SourceDir() string { return filepath.Join(l.root, SourceDirName) }

// ModuleDir is <root>/src/<name>.
func (l Layout) ModuleDir(name string) string { return filepath.Join(l.SourceDir(), name) }

// ModuleEntry is <root>/src/<name>/index.ts.
func (l Layout) ModuleEntry(name string) string {
	return filepath.Join(l.ModuleDir(name), EntryFileName)
}

// RepositoryEntry is the repository descriptor, <root>/src/index.ts.
func (l Layout) RepositoryEntry() string { return filepath.Join(l.SourceDir(), EntryFileName) }

// CompilerConfig is <root>/tsconfig.json.
func (l Layout) CompilerConfig() string { return filepath.Join(l.root, CompilerConfigName) }

// RuntimePackage is <root>/node_modules/@mochi/js/package.json.
func (l Layout) RuntimePackage() string { return filepath.Join(l.root, runtimePackagePath) }

// BinDir is <root>/node_modules/.bin.
func (l Layout) BinDir() string { return filepath.Join(l.root, "node_modules", ".bin") }

// Rel returns path relative to the root with forward slashes, or path
// unchanged when it cannot be made relative.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// OutputLayout derives paths under an output root.
type OutputLayout struct {
	root string
}

// NewOutputLayout resolves root to an absolute path. The directory does not
// need to exist.
func NewOutputLayout(root string) (OutputLayout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return OutputLayout{}, fmt.Errorf("resolve output root %q: %w", root, err)
	}
	return OutputLayout{root: abs}, nil
}

// Root is the absolute output root.
func (o OutputLayout) Root() string { return o.root }

// ModulesDir is <out>/modules.
func (o OutputLayout) ModulesDir() string { return filepath.Join(o.root, ModulesDirName) }

// Manifest is <out>/Manifest.json.
func (o OutputLayout) Manifest() string { return filepath.Join(o.root, ManifestFileName) }

// Site is <out>/index.html.
func (o OutputLayout) Site() string { return filepath.Join(o.root, SiteFileName) }

// ModuleScript is <out>/modules/<name>.js.
func (o OutputLayout) ModuleScript(name string) string {
	return filepath.Join(o.ModulesDir(), name+ModuleScriptExt)
}

// ModuleURL is the manifest "file" value for a module: /modules/<name>.js.
func ModuleURL(name string) string {
	return "/" + ModulesDirName + "/" + name + ModuleScriptExt
}
