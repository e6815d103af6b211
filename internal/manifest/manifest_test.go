// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/testutil"
	"github.com/mochi/mochi-cli/pkg/types"
)

func TestToID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"MyModule", "my-module"},
		{"my_module Name", "my-module-name"},
		{"my-module", "my-module"},
		{"Foo", "foo"},
		{"bar-baz", "bar-baz"},
		{"Spaced \t  Out", "spaced-out"},
		{"snake__case", "snake-case"},
		{"mixed _ run", "mixed-run"},
		{"HTTPServer", "httpserver"},
		{"V2Api", "v2api"},
		{"Anime (JP)", "anime-(jp)"},
		{"Foo.Bar", "foo.bar"},
		{"kebab--case", "kebab--case"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := ToID(tt.in)
			if got != tt.want {
				t.Errorf("ToID(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := ToID(got); again != got {
				t.Errorf("ToID is not idempotent: ToID(%q) = %q", got, again)
			}
		})
	}
}

func module(name, source string, declared Fields) Module {
	return Module{
		Unit: bundler.CompiledUnit{
			LogicalName: types.ModuleName(name),
			Kind:        bundler.KindModule,
			Source:      source,
		},
		Declared: declared,
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	repo := Fields{"name": "Repo"}
	m, err := Assemble(repo, []Module{
		module("Foo", "var source={}", Fields{"name": "Foo Module", "version": "0.1.0", "meta": []any{"x"}}),
		module("bar-baz", "var source=1", Fields{"name": "Bar", "id": "custom"}),
	}, "1.4.2")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(m.Modules) != 2 {
		t.Fatalf("got %d modules, want 2", len(m.Modules))
	}
	foo, bar := m.Modules[0], m.Modules[1]

	if foo[FieldID] != "foo-module" {
		t.Errorf("derived id = %v", foo[FieldID])
	}
	if bar[FieldID] != "custom" {
		t.Errorf("declared id should be kept, got %v", bar[FieldID])
	}
	if foo[FieldFile] != "/modules/Foo.js" || bar[FieldFile] != "/modules/bar-baz.js" {
		t.Errorf("unexpected files %v, %v", foo[FieldFile], bar[FieldFile])
	}
	for _, mod := range m.Modules {
		if mod[FieldVersion] != "1.4.2" {
			t.Errorf("mochiJSVersion = %v", mod[FieldVersion])
		}
		if meta, ok := mod[FieldMeta].([]any); !ok || len(meta) != 0 {
			t.Errorf("meta = %#v, want empty list", mod[FieldMeta])
		}
		if h, _ := mod[FieldHash].(string); len(h) != 64 {
			t.Errorf("hash = %v", mod[FieldHash])
		}
	}
	if foo["version"] != "0.1.0" {
		t.Error("declared fields should pass through")
	}
	if foo[FieldHash] == bar[FieldHash] {
		t.Error("different sources should hash differently")
	}
}

func TestAssembleDuplicateID(t *testing.T) {
	t.Parallel()

	_, err := Assemble(Fields{}, []Module{
		module("A", "", Fields{"name": "My Module"}),
		module("B", "", Fields{"name": "my_module"}),
	}, "1.0.0")

	var dup *DuplicateModuleIDError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateModuleIDError, got %v", err)
	}
	if dup.First != "A" || dup.Second != "B" || dup.ID != "my-module" {
		t.Errorf("unexpected error fields %+v", dup)
	}
	if !errors.Is(err, ErrDuplicateModuleID) {
		t.Error("errors.Is(err, ErrDuplicateModuleID) = false")
	}
	if is := issue.Lookup(err); is == nil || is.Id() != issue.DuplicateModuleIdId {
		t.Error("error should map to the duplicate id issue")
	}
}

func TestAssembleInvalidID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		declared Fields
		reason   string
	}{
		{name: "name derives nothing", declared: Fields{"name": "★★"}, reason: "derived"},
		{name: "name is blank", declared: Fields{"name": " "}, reason: "derived"},
		{name: "declared id is a number", declared: Fields{"name": "Foo", "id": 42}, reason: "string"},
		{name: "declared id is an object", declared: Fields{"name": "Foo", "id": map[string]any{}}, reason: "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Assemble(Fields{}, []Module{
				module("Good", "", Fields{"name": "Good"}),
				module("Stars", "", tt.declared),
			}, "1.0.0")
			if m != nil {
				t.Error("Assemble() should not return a manifest")
			}

			var invalid *InvalidModuleIDError
			if !errors.As(err, &invalid) {
				t.Fatalf("want InvalidModuleIDError, got %v", err)
			}
			if invalid.Module != "Stars" {
				t.Errorf("error names module %q, want Stars", invalid.Module)
			}
			if !strings.Contains(err.Error(), "`Stars`") || !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("unexpected message %q", err.Error())
			}
			if !errors.Is(err, ErrInvalidModuleID) {
				t.Error("errors.Is(err, ErrInvalidModuleID) = false")
			}
			if is := issue.Lookup(err); is == nil || is.Id() != issue.ModuleContractId {
				t.Error("error should map to the module contract issue")
			}
		})
	}
}

func TestAssembleEmptyDeclaredIDDerives(t *testing.T) {
	t.Parallel()

	m, err := Assemble(Fields{}, []Module{module("Foo", "", Fields{"name": "FooBar", "id": ""})}, "1.0.0")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if got := m.Modules[0][FieldID]; got != "foo-bar" {
		t.Errorf("id = %v, want foo-bar", got)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []byte {
		m, err := Assemble(Fields{"name": "Repo", "author": "x", "b": 1}, []Module{
			module("Foo", "src", Fields{"name": "Foo", "z": true, "a": "<tag>"}),
		}, "1.0.0")
		if err != nil {
			t.Fatal(err)
		}
		data, err := m.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first, second := build(), build()
	if !bytes.Equal(first, second) {
		t.Error("manifest serialisation is not deterministic")
	}

	s := string(first)
	if !strings.HasSuffix(s, "}\n") {
		t.Error("manifest should end with a newline")
	}
	if !strings.Contains(s, "\n  \"modules\": [") {
		t.Errorf("expected two-space indentation:\n%s", s)
	}
	if strings.Index(s, `"modules"`) > strings.Index(s, `"repository"`) {
		t.Error("top-level keys should be sorted")
	}
	if strings.Index(s, `"a"`) > strings.Index(s, `"z"`) {
		t.Error("module keys should be sorted")
	}
	if !strings.Contains(s, "<tag>") {
		t.Error("HTML characters should not be escaped")
	}
}

func TestCommit(t *testing.T) {
	t.Parallel()

	out, err := project.NewOutputLayout(filepath.Join(t.TempDir(), "dist"))
	if err != nil {
		t.Fatal(err)
	}

	// Leftovers from a previous build must disappear.
	testutil.MustWriteFile(t, out.ModuleScript("Stale"), "old")
	testutil.MustWriteFile(t, filepath.Join(out.Root(), "keep.txt"), "keep")

	m, err := Assemble(Fields{"name": "Repo"}, []Module{
		module("Foo", "var source = 1;", Fields{"name": "Foo"}),
	}, "1.0.0")
	if err != nil {
		t.Fatal(err)
	}

	written, err := Commit(out, m)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(written) != 2 {
		t.Errorf("written = %v", written)
	}

	if testutil.Exists(out.ModuleScript("Stale")) {
		t.Error("stale module script should be removed")
	}
	if !testutil.Exists(filepath.Join(out.Root(), "keep.txt")) {
		t.Error("unrelated files in the output root should be kept")
	}
	if got := testutil.MustReadFile(t, out.ModuleScript("Foo")); got != "var source = 1;" {
		t.Errorf("module script = %q", got)
	}
	if testutil.Exists(out.ModuleScript(string(types.RepositoryUnitName))) {
		t.Error("repository script must never be written")
	}

	loaded, err := Load(out.Manifest())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Repository["name"] != "Repo" || len(loaded.Modules) != 1 {
		t.Errorf("unexpected loaded manifest %+v", loaded)
	}

	// Committing again into a deleted output root works.
	if err := os.RemoveAll(out.Root()); err != nil {
		t.Fatal(err)
	}
	if _, err := Commit(out, m); err != nil {
		t.Fatalf("Commit() after removing output root: %v", err)
	}
}

func TestCommitError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	testutil.MustWriteFile(t, blocker, "x")

	out, err := project.NewOutputLayout(blocker)
	if err != nil {
		t.Fatal(err)
	}
	m, err := Assemble(Fields{}, nil, "1.0.0")
	if err != nil {
		t.Fatal(err)
	}

	_, err = Commit(out, m)
	var ce *CommitError
	if !errors.As(err, &ce) {
		t.Fatalf("want CommitError, got %v", err)
	}
	if is := issue.Lookup(err); is == nil || is.Id() != issue.OutputWriteFailedId {
		t.Error("error should map to the output write issue")
	}
}

func TestLoadMissingRepository(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Manifest.json")
	testutil.MustWriteFile(t, path, `{"modules": []}`)
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail without repository")
	}
}
