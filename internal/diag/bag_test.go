// SPDX-License-Identifier: MPL-2.0

package diag

import (
	"errors"
	"testing"
)

func TestBag_HasErrors(t *testing.T) {
	t.Parallel()

	b := NewBag(
		Diagnostic{Severity: SevWarning, Message: "unused"},
		Diagnostic{Severity: SevSuggestion, Message: "could be const"},
	)
	if b.HasErrors() {
		t.Fatal("HasErrors() = true with only warnings")
	}

	b.Add(Diagnostic{Severity: SevError, Message: "type mismatch"})
	if !b.HasErrors() {
		t.Fatal("HasErrors() = false after adding an error")
	}
	if got := len(b.Errors()); got != 1 {
		t.Errorf("Errors() returned %d items, want 1", got)
	}
	if got := b.Count(SevWarning); got != 1 {
		t.Errorf("Count(SevWarning) = %d, want 1", got)
	}
}

func TestBag_SortAndDedup(t *testing.T) {
	t.Parallel()

	b := NewBag(
		Diagnostic{File: "/p/src/b/index.ts", Line: 3, Column: 1, Severity: SevError},
		Diagnostic{File: "/p/src/a/index.ts", Line: 9, Column: 4, Severity: SevWarning},
		Diagnostic{File: "/p/src/a/index.ts", Line: 9, Column: 4, Severity: SevError},
		Diagnostic{Message: "global"},
		Diagnostic{File: "/p/src/b/index.ts", Line: 3, Column: 1, Severity: SevError},
	)
	b.Dedup()
	if b.Len() != 4 {
		t.Fatalf("Len() after Dedup = %d, want 4", b.Len())
	}
	b.Sort()

	items := b.Items()
	if items[0].Message != "global" {
		t.Errorf("global diagnostic should sort first, got %+v", items[0])
	}
	if items[1].Severity != SevError || items[2].Severity != SevWarning {
		t.Errorf("same position should order errors first: %+v, %+v", items[1], items[2])
	}
	if items[3].File != "/p/src/b/index.ts" {
		t.Errorf("unexpected last item %+v", items[3])
	}
}

func TestBag_ItemsIsCopy(t *testing.T) {
	t.Parallel()

	b := NewBag(Diagnostic{Message: "one"})
	items := b.Items()
	items[0].Message = "changed"
	if b.Items()[0].Message != "one" {
		t.Error("Items() should return a copy")
	}
}

func TestSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want Severity
	}{
		{"error", SevError},
		{"warning", SevWarning},
		{"suggestion", SevSuggestion},
		{"message", SevInfo},
		{"", SevInfo},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.word); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.word, got, tt.want)
		}
	}

	if ok, _ := SevError.IsValid(); !ok {
		t.Error("SevError should be valid")
	}
	ok, errs := Severity(42).IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidSeverity) {
		t.Errorf("Severity(42).IsValid() = %v, %v", ok, errs)
	}
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	d := Diagnostic{File: "a.ts", Line: 2, Column: 5, Message: "bad"}
	if got := d.String(); got != "a.ts:2:5 - bad" {
		t.Errorf("String() = %q", got)
	}
	if got := (Diagnostic{Message: "global"}).String(); got != "global" {
		t.Errorf("String() = %q", got)
	}
}
