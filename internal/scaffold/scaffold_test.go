// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/mochi/mochi-cli/internal/depver"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/testutil"
)

func TestClassName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "my module", want: "MyModule"},
		{name: "MyModule", want: "MyModule"},
		{name: "html-parser", want: "HtmlParser"},
		{name: "HTML parser", want: "HtmlParser"},
		{name: "manga_dex v2", want: "MangaDexV2"},
		{name: "  spaced  ", want: "Spaced"},
		{name: "", wantErr: true},
		{name: "---", wantErr: true},
		{name: "123 go", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ClassName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidModuleName) {
					t.Fatalf("ClassName(%q) error = %v, want ErrInvalidModuleName", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassName(%q) unexpected error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ClassName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	layout, err := project.NewLayout(repo.Root)
	if err != nil {
		t.Fatal(err)
	}
	rec := &report.Recorder{}

	m, err := Create(layout, Options{Name: "Manga Dex", Reporter: rec})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if m.ClassName != "MangaDex" {
		t.Errorf("ClassName = %q, want MangaDex", m.ClassName)
	}
	if m.RuntimeVersion != testutil.DefaultRuntimeVersion {
		t.Errorf("RuntimeVersion = %q, want %q", m.RuntimeVersion, testutil.DefaultRuntimeVersion)
	}
	if m.Entry != repo.Path("src", "mangadex", "index.ts") {
		t.Errorf("Entry = %q", m.Entry)
	}

	src := testutil.MustReadFile(t, m.Entry)
	for _, want := range []string{
		"export default class MangaDex extends SourceModule",
		"name: 'Manga Dex',",
		"from '@mochi/js'",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("entry missing %q\n%s", want, src)
		}
	}

	info, err := os.Stat(repo.Path("src", "mangadex", ResourceDirName))
	if err != nil || !info.IsDir() {
		t.Fatalf("res/ not created: %v", err)
	}
	entries, _ := os.ReadDir(repo.Path("src", "mangadex", ResourceDirName))
	if len(entries) != 0 {
		t.Errorf("res/ has %d entries, want 0", len(entries))
	}

	if msgs := rec.Messages(report.LevelSuccess); len(msgs) != 1 || !strings.Contains(msgs[0], "Successfully created module") {
		t.Errorf("success messages = %v", msgs)
	}
}

func TestCreate_RefusesExistingDirectory(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t).ClassModule("mangadex", "Existing")
	layout, err := project.NewLayout(repo.Root)
	if err != nil {
		t.Fatal(err)
	}
	before := testutil.MustReadFile(t, repo.Path("src", "mangadex", "index.ts"))

	_, err = Create(layout, Options{Name: "manga-dex"})
	var exists *ExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("Create() error = %v, want *ExistsError", err)
	}
	if !errors.Is(err, ErrModuleExists) {
		t.Error("error should wrap ErrModuleExists")
	}
	if exists.Dir != "src/mangadex" {
		t.Errorf("Dir = %q, want src/mangadex", exists.Dir)
	}
	if got := testutil.MustReadFile(t, repo.Path("src", "mangadex", "index.ts")); got != before {
		t.Error("existing entry was modified")
	}
}

func TestCreate_RequiresRuntime(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	if err := os.RemoveAll(repo.Path("node_modules")); err != nil {
		t.Fatal(err)
	}
	layout, err := project.NewLayout(repo.Root)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Create(layout, Options{Name: "Foo"})
	var re *depver.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("Create() error = %v, want *depver.ResolutionError", err)
	}
	if testutil.Exists(repo.Path("src", "foo")) {
		t.Error("module directory created without @mochi/js")
	}
}

func TestQuoteTS(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain":      "'plain'",
		`it's`:       `'it\'s'`,
		`say "hi"`:   `'say "hi"'`,
		`back\slash`: `'back\\slash'`,
	}
	for in, want := range tests {
		if got := quoteTS(in); got != want {
			t.Errorf("quoteTS(%q) = %s, want %s", in, got, want)
		}
	}
}
