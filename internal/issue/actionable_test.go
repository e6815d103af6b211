// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "bundle modules"},
			expected: "failed to bundle modules",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "read tsconfig",
				Resource:  "tsconfig.json",
			},
			expected: "failed to read tsconfig: tsconfig.json",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "write manifest",
				Cause:     errors.New("disk full"),
			},
			expected: "failed to write manifest: disk full",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "resolve @mochi/js version",
				Resource:  "node_modules/@mochi/js/package.json",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to resolve @mochi/js version: node_modules/@mochi/js/package.json: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	if (&ActionableError{Operation: "test"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions are bulleted",
			err: &ActionableError{
				Operation:   "load configuration",
				Resource:    "mochi.cue",
				Suggestions: []string{"Check the CUE syntax", "Run 'mochi config show'"},
			},
			contains: []string{
				"failed to load configuration: mochi.cue",
				"• Check the CUE syntax",
				"• Run 'mochi config show'",
			},
		},
		{
			name: "no chain when not verbose",
			err: &ActionableError{
				Operation: "bundle modules",
				Cause:     errors.New("unresolved import"),
			},
			contains: []string{"failed to bundle modules: unresolved import"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested chain when verbose",
			err: &ActionableError{
				Operation: "build repository",
				Cause: &ActionableError{
					Operation: "write module",
					Cause:     errors.New("permission denied"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to write module: permission denied",
				"2. permission denied",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewErrorContext().
		WithOperation("commit output").
		WithResource("dist").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build() returned nil")
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("got %d suggestions, want 3", len(err.Suggestions))
	}
	if !errors.Is(err, cause) {
		t.Error("built error should wrap cause")
	}

	if NewErrorContext().Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without an operation should return nil")
	}
}

func TestWrapHelpers(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	got := WrapWithContext(errors.New("bad"), "read", "file.ts")
	if got.Error() != "failed to read: file.ts: bad" {
		t.Errorf("unexpected message %q", got.Error())
	}
}
