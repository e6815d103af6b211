// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/typecheck"
)

// testApp returns an App writing to buffers with a checker that reports
// diags for every program.
func testApp(diags ...diag.Diagnostic) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Checker: typecheck.CheckerFunc(func(context.Context, typecheck.Program) ([]diag.Diagnostic, error) {
			return diags, nil
		}),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return app, &stdout, &stderr
}

func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	app, stdout, _ := testApp()
	if err := execute(t, app, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := stdout.String(); got != "mochi "+getVersionString()+"\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	app, _, _ := testApp()
	root := NewRootCommand(app)
	for _, name := range []string{"check", "bundle", "serve", "inspect", "config", "init", "version"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if c, _, err := root.Find([]string{"init", "module"}); err != nil || c.Name() != "module" {
		t.Error("init module not registered")
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing persistent flags")
	}
}
