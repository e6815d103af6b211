// SPDX-License-Identifier: MPL-2.0

package depver

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/testutil"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(*testutil.Repo)
		want      string
		wantErr   error
		wantWarns int
	}{
		{
			name:  "installed",
			setup: func(r *testutil.Repo) { r.RuntimeVersion("2.0.1") },
			want:  "2.0.1",
		},
		{
			name:  "prerelease",
			setup: func(r *testutil.Repo) { r.RuntimeVersion("2.1.0-beta.3") },
			want:  "2.1.0-beta.3",
		},
		{
			name:      "not semver is kept with a warning",
			setup:     func(r *testutil.Repo) { r.RuntimeVersion("latest") },
			want:      "latest",
			wantWarns: 1,
		},
		{
			name:    "missing version field",
			setup:   func(r *testutil.Repo) { r.RuntimeVersion("") },
			wantErr: ErrVersionNotFound,
		},
		{
			name: "numeric version field",
			setup: func(r *testutil.Repo) {
				testutil.MustWriteFile(t, r.Path("node_modules", "@mochi", "js", "package.json"), `{"version": 2}`)
			},
			wantErr: ErrVersionNotFound,
		},
		{
			name: "not installed",
			setup: func(r *testutil.Repo) {
				if err := os.RemoveAll(r.Path("node_modules")); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: fs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := testutil.NewRepo(t)
			tt.setup(repo)
			layout, err := project.NewLayout(repo.Root)
			if err != nil {
				t.Fatal(err)
			}

			var rec report.Recorder
			got, err := Resolve(layout, &rec)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				var resErr *ResolutionError
				if !errors.As(err, &resErr) {
					t.Fatalf("error should be *ResolutionError, got %T", err)
				}
				if !strings.Contains(err.Error(), "failed to find @mochi/js version in") {
					t.Errorf("unexpected message %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if warns := rec.Messages(report.LevelWarn); len(warns) != tt.wantWarns {
				t.Errorf("got %d warnings, want %d", len(warns), tt.wantWarns)
			}
		})
	}
}

func TestIsSemver(t *testing.T) {
	t.Parallel()

	for v, want := range map[string]bool{
		"1.0.0":  true,
		"v1.0.0": true,
		"1.0":    true,
		"abc":    false,
		"":       false,
	} {
		if got := IsSemver(v); got != want {
			t.Errorf("IsSemver(%q) = %v, want %v", v, got, want)
		}
	}
}
