// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"testing"
)

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		wantOK   bool
		wantErrs int
	}{
		{name: "zero value", cfg: Config{}, wantOK: true},
		{
			name:   "valid patterns",
			cfg:    Config{Patterns: []string{"src/**/*.ts", "tsconfig.json"}, Ignore: []string{"dist/**"}},
			wantOK: true,
		},
		{name: "empty pattern", cfg: Config{Patterns: []string{""}}, wantErrs: 1},
		{name: "unclosed class", cfg: Config{Patterns: []string{"[invalid"}}, wantErrs: 1},
		{
			name:     "both lists invalid",
			cfg:      Config{Patterns: []string{"{a"}, Ignore: []string{"[b"}},
			wantErrs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, errs := tt.cfg.IsValid()
			if ok != tt.wantOK {
				t.Errorf("IsValid() ok = %v, want %v", ok, tt.wantOK)
			}
			if len(errs) != tt.wantErrs {
				t.Errorf("IsValid() returned %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
			for _, err := range errs {
				if !errors.Is(err, ErrInvalidPattern) {
					t.Errorf("error %v should wrap ErrInvalidPattern", err)
				}
			}
		})
	}
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[invalid"}})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("New() error = %v, want ErrInvalidPattern", err)
	}
}
