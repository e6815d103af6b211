// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/testutil"
	"github.com/mochi/mochi-cli/pkg/types"
)

const root = "/repo"

func moduleUnit(name, body string) bundler.CompiledUnit {
	return bundler.CompiledUnit{
		LogicalName: types.ModuleName(name),
		Kind:        bundler.KindModule,
		Entry:       root + "/src/" + name + "/index.ts",
		Source:      "var source = (() => {\n" + body + "\n})();",
	}
}

func repositoryUnit(body string) bundler.CompiledUnit {
	return bundler.CompiledUnit{
		LogicalName: types.RepositoryUnitName,
		Kind:        bundler.KindRepository,
		Entry:       root + "/src/index.ts",
		Source:      "var source = (() => {\n" + body + "\n})();",
	}
}

func TestReadModuleMetadata(t *testing.T) {
	t.Parallel()

	unit := moduleUnit("Foo", `
class Foo {
  constructor() {
    this.metadata = { name: "Foo", version: "1.0.0", tags: ["a", "b"], nsfw: false, weight: 2 };
  }
}
return { default: Foo };`)

	meta, err := Sandbox{Root: root}.ReadModuleMetadata(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, "Foo", meta["name"])
	assert.Equal(t, "1.0.0", meta["version"])
	assert.Equal(t, []any{"a", "b"}, meta["tags"])
	assert.Equal(t, false, meta["nsfw"])
	assert.Equal(t, json.Number("2"), meta["weight"])
}

func TestReadModuleMetadataContract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"no default export", `return {};`},
		{"default export is not a class", `return { default: { metadata: { name: "x" } } };`},
		{"arrow function is not constructible", `return { default: () => ({}) };`},
		{"class without metadata", `class A {}; return { default: A };`},
		{"metadata null", `class A { constructor() { this.metadata = null; } }; return { default: A };`},
		{"metadata without name", `class A { constructor() { this.metadata = { version: "1" }; } }; return { default: A };`},
		{"metadata with numeric name", `class A { constructor() { this.metadata = { name: 3 }; } }; return { default: A };`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Sandbox{Root: root}.ReadModuleMetadata(context.Background(), moduleUnit("Broken", tt.body))
			var contract *ModuleContractError
			require.ErrorAs(t, err, &contract)
			assert.Equal(t, "Broken", contract.Module)
			assert.Equal(t, "src/Broken/index.ts", contract.Path)
			assert.Contains(t, err.Error(), "must be the default export")

			is := issue.Lookup(err)
			require.NotNil(t, is)
			assert.Equal(t, issue.ModuleContractId, is.Id())
		})
	}
}

func TestReadRepository(t *testing.T) {
	t.Parallel()

	meta, err := Sandbox{Root: root}.ReadRepository(context.Background(),
		repositoryUnit(`return { default: { name: "Repo", author: { name: "someone" } } };`))
	require.NoError(t, err)
	assert.Equal(t, "Repo", meta["name"])
	assert.Equal(t, map[string]any{"name": "someone"}, meta["author"])
}

func TestReadRepositoryContract(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"missing":    `return {};`,
		"falsy":      `return { default: 0 };`,
		"not object": `return { default: "repo" };`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Sandbox{Root: root}.ReadRepository(context.Background(), repositoryUnit(body))
			var contract *RepositoryContractError
			require.ErrorAs(t, err, &contract)
			assert.Contains(t, err.Error(), "`src/index.ts` must export the repository metadata as its default export")
		})
	}
}

func TestScriptErrors(t *testing.T) {
	t.Parallel()

	t.Run("top-level throw", func(t *testing.T) {
		t.Parallel()
		_, err := Sandbox{}.ReadModuleMetadata(context.Background(), moduleUnit("Boom", `throw new Error("kaput");`))
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		assert.Contains(t, err.Error(), "kaput")
	})

	t.Run("throwing constructor", func(t *testing.T) {
		t.Parallel()
		_, err := Sandbox{}.ReadModuleMetadata(context.Background(),
			moduleUnit("Ctor", `class A { constructor() { throw new Error("no"); } }; return { default: A };`))
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
	})

	t.Run("throwing getter", func(t *testing.T) {
		t.Parallel()
		_, err := Sandbox{}.ReadModuleMetadata(context.Background(),
			moduleUnit("Getter", `class A { get metadata() { throw new Error("getter"); } }; return { default: A };`))
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		_, err := Sandbox{Timeout: 50 * time.Millisecond}.ReadModuleMetadata(context.Background(),
			moduleUnit("Loop", `for (;;) {}`))
		require.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)
		_, err := Sandbox{}.ReadModuleMetadata(ctx, moduleUnit("Loop", `for (;;) {}`))
		require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})
}

func TestNoHostAccess(t *testing.T) {
	t.Parallel()

	meta, err := Sandbox{}.ReadModuleMetadata(context.Background(), moduleUnit("Probe", `
class Probe {
  constructor() {
    this.metadata = {
      name: "probe",
      require: typeof require,
      process: typeof process,
      fetch: typeof fetch,
    };
  }
}
return { default: Probe };`))
	require.NoError(t, err)
	assert.Equal(t, "undefined", meta["require"])
	assert.Equal(t, "undefined", meta["process"])
	assert.Equal(t, "undefined", meta["fetch"])
}

func TestFreshRuntimePerEvaluation(t *testing.T) {
	t.Parallel()

	unit := moduleUnit("Counter", `
globalThis.count = (globalThis.count || 0) + 1;
class C { constructor() { this.metadata = { name: "c", count: globalThis.count }; } }
return { default: C };`)

	sb := Sandbox{}
	for range 2 {
		meta, err := sb.ReadModuleMetadata(context.Background(), unit)
		require.NoError(t, err)
		assert.Equal(t, json.Number("1"), meta["count"])
	}
}

func TestConsoleForwarded(t *testing.T) {
	t.Parallel()

	var rec report.Recorder
	_, err := Sandbox{Reporter: &rec}.ReadModuleMetadata(context.Background(), moduleUnit("Chatty", `
console.log("hello", 42);
class C { constructor() { this.metadata = { name: "c" }; } }
return { default: C };`))
	require.NoError(t, err)

	events := rec.OfKind(report.KindConsole)
	require.Len(t, events, 1)
	assert.Equal(t, "hello 42", events[0].Message)
}

func TestBundledModuleRoundTrip(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t).ClassModule("Foo", "Foo Module").DefaultRepository()
	res, err := bundler.Esbuild{}.Bundle(context.Background(), bundler.Plan{
		Root:       repo.Root,
		Repository: repo.Path("src", "index.ts"),
		Modules:    []bundler.Entry{{Name: "Foo", Path: repo.Path("src", "Foo", "index.ts")}},
		Minify:     true,
	})
	require.NoError(t, err)

	sb := Sandbox{Root: repo.Root}
	meta, err := sb.ReadModuleMetadata(context.Background(), res.Modules[0])
	require.NoError(t, err)
	assert.Equal(t, "Foo Module", meta["name"])

	repoMeta, err := sb.ReadRepository(context.Background(), res.Repository)
	require.NoError(t, err)
	assert.Equal(t, "Test Repository", repoMeta["name"])
}
