// SPDX-License-Identifier: MPL-2.0

package diag

import (
	"cmp"
	"slices"
	"sync"
)

// Bag collects diagnostics. It is safe for concurrent use.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewBag returns a bag pre-filled with ds.
func NewBag(ds ...Diagnostic) *Bag {
	b := &Bag{}
	b.Add(ds...)
	return b
}

// Add appends diagnostics in order.
func (b *Bag) Add(ds ...Diagnostic) {
	if len(ds) == 0 {
		return
	}
	b.mu.Lock()
	b.items = append(b.items, ds...)
	b.mu.Unlock()
}

// Merge appends every diagnostic of other.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	b.Add(other.Items()...)
}

// Len returns the number of collected diagnostics.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Count returns how many diagnostics have exactly severity s.
func (b *Bag) Count(s Severity) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.items {
		if b.items[i].Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic is an error.
func (b *Bag) HasErrors() bool {
	return b.Count(SevError) > 0
}

// Errors returns only the error diagnostics.
func (b *Bag) Errors() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == SevError {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by file, line, column, then severity descending.
// Diagnostics without a file sort first.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		if c := cmp.Compare(x.File, y.File); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Line, y.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Column, y.Column); c != 0 {
			return c
		}
		return cmp.Compare(y.Severity, x.Severity)
	})
}

// Dedup removes exact duplicates, keeping the first occurrence.
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[Diagnostic]struct{}, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	b.items = out
}
