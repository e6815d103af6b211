// SPDX-License-Identifier: MPL-2.0

// Package diagfmt renders diagnostics for the terminal.
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mochi/mochi-cli/internal/diag"
)

type (
	// Options controls rendering.
	Options struct {
		// Root is the project root. File paths under it are printed relative.
		Root string
		// Color enables lipgloss styling of the severity label.
		Color bool
	}
)

var (
	errorLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	warningLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	suggestionLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	infoLabel       = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Format renders d as "<relative path>:<line>:<column> - <message>".
// Diagnostics without a position render as their message, prefixed by the
// path when one is known.
func Format(d diag.Diagnostic, root string) string {
	path := RelPath(d.File, root)
	switch {
	case d.HasPosition():
		return fmt.Sprintf("%s:%d:%d - %s", path, d.Line, max(d.Column, 1), d.Message)
	case path != "":
		return fmt.Sprintf("%s - %s", path, d.Message)
	default:
		return d.Message
	}
}

// RelPath returns path relative to root with forward slashes. Paths outside
// root, or any path when root is empty, are returned unchanged.
func RelPath(path, root string) string {
	if path == "" || root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Line renders d with its severity label.
func Line(d diag.Diagnostic, opts Options) string {
	label := d.Severity.String()
	if d.Code != "" {
		label += " " + d.Code
	}
	if opts.Color {
		label = styleFor(d.Severity).Render(label)
	}
	return label + " " + Format(d, opts.Root)
}

// Write renders every diagnostic on its own line followed by a summary line.
// With Color the summary takes the style of the worst severity.
func Write(w io.Writer, ds []diag.Diagnostic, opts Options) error {
	if len(ds) == 0 {
		return nil
	}
	worst := diag.SevInfo
	for _, d := range ds {
		worst = max(worst, d.Severity)
		if _, err := fmt.Fprintln(w, Line(d, opts)); err != nil {
			return err
		}
	}
	summary := Summary(ds)
	if opts.Color {
		summary = styleFor(worst).Render(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// Summary returns e.g. "2 errors, 1 warning".
func Summary(ds []diag.Diagnostic) string {
	var errs, warns, others int
	for _, d := range ds {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		default:
			others++
		}
	}
	parts := []string{plural(errs, "error"), plural(warns, "warning")}
	if others > 0 {
		parts = append(parts, plural(others, "message"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func styleFor(s diag.Severity) lipgloss.Style {
	switch s {
	case diag.SevError:
		return errorLabel
	case diag.SevWarning:
		return warningLabel
	case diag.SevSuggestion:
		return suggestionLabel
	default:
		return infoLabel
	}
}
