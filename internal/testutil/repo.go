// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

const (
	// DefaultRuntimeVersion is the @mochi/js version NewRepo installs.
	DefaultRuntimeVersion = "1.4.2"
	// DefaultRepositoryName is the name written by DefaultRepository.
	DefaultRepositoryName = "Test Repository"
)

// Repo is a module repository on disk.
type Repo struct {
	t    testing.TB
	Root string
}

// NewRepo creates an empty repository in a temporary directory with src/
// and an installed @mochi/js at DefaultRuntimeVersion.
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	r := &Repo{t: t, Root: t.TempDir()}
	MustMkdir(t, filepath.Join(r.Root, "src"))
	r.RuntimeVersion(DefaultRuntimeVersion)
	return r
}

// Path joins elems onto the repository root.
func (r *Repo) Path(elems ...string) string {
	return filepath.Join(append([]string{r.Root}, elems...)...)
}

// Module writes src/<dir>/index.ts.
func (r *Repo) Module(dir, source string) *Repo {
	r.t.Helper()
	MustWriteFile(r.t, r.Path("src", dir, "index.ts"), source)
	return r
}

// ClassModule writes a module whose default export is a class carrying
// metadata with the given name.
func (r *Repo) ClassModule(dir, name string) *Repo {
	r.t.Helper()
	return r.Module(dir, ClassModuleSource(name))
}

// EmptyDir creates src/<dir> without an entry file.
func (r *Repo) EmptyDir(dir string) *Repo {
	r.t.Helper()
	MustMkdir(r.t, r.Path("src", dir))
	return r
}

// Repository writes the repository descriptor src/index.ts.
func (r *Repo) Repository(source string) *Repo {
	r.t.Helper()
	MustWriteFile(r.t, r.Path("src", "index.ts"), source)
	return r
}

// DefaultRepository writes a descriptor exporting a small metadata object.
func (r *Repo) DefaultRepository() *Repo {
	r.t.Helper()
	return r.Repository(`export default {
  name: "` + DefaultRepositoryName + `",
  description: "Modules used in tests",
};
`)
}

// TSConfig writes tsconfig.json verbatim.
func (r *Repo) TSConfig(content string) *Repo {
	r.t.Helper()
	MustWriteFile(r.t, r.Path("tsconfig.json"), content)
	return r
}

// RuntimeVersion (re)writes node_modules/@mochi/js/package.json. An empty
// version writes a descriptor without a version field.
func (r *Repo) RuntimeVersion(version string) *Repo {
	r.t.Helper()
	pkg := map[string]any{"name": "@mochi/js"}
	if version != "" {
		pkg["version"] = version
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		r.t.Fatalf("marshal package.json: %v", err)
	}
	MustWriteFile(r.t, r.Path("node_modules", "@mochi", "js", "package.json"), string(data))
	return r
}

// ClassModuleSource returns TypeScript for a module class with metadata.
func ClassModuleSource(name string) string {
	data, _ := json.Marshal(name)
	return `export default class Module {
  metadata = { name: ` + string(data) + `, version: "0.1.0" };
}
`
}
