// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates new module directories inside a repository.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/mochi/mochi-cli/internal/depver"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
)

// ResourceDirName is created empty next to every new module entry.
const ResourceDirName = "res"

var (
	//go:embed templates/module.ts.tmpl
	templateFS embed.FS

	moduleTemplate = template.Must(template.New("module.ts.tmpl").
			Funcs(template.FuncMap{"quote": quoteTS}).
			ParseFS(templateFS, "templates/module.ts.tmpl"))

	// ErrInvalidModuleName is returned when a name yields no usable class name.
	ErrInvalidModuleName = errors.New("invalid module name")

	// ErrModuleExists is returned when the target directory already exists.
	ErrModuleExists = errors.New("module directory already exists")
)

type (
	// Options configures module creation.
	Options struct {
		// Name is the display name, e.g. "My Module".
		Name     string
		Reporter report.Reporter
	}

	// Module describes a created module.
	Module struct {
		ClassName   string
		DisplayName string
		Dir         string
		Entry       string
		// RuntimeVersion is the installed @mochi/js version.
		RuntimeVersion string
	}

	// InvalidNameError is returned for names that cannot become a class name.
	InvalidNameError struct {
		Name string
	}

	// ExistsError is returned when the module directory is already present.
	ExistsError struct {
		Name string
		Dir  string
	}
)

// Create writes src/<classname lowercased>/index.ts and an empty res/
// directory. The repository must have @mochi/js installed and the target
// directory must not exist.
func Create(layout project.Layout, opts Options) (*Module, error) {
	r := report.OrNop(opts.Reporter)

	name := strings.TrimSpace(opts.Name)
	className, err := ClassName(name)
	if err != nil {
		return nil, err
	}

	version, err := depver.Resolve(layout, r)
	if err != nil {
		return nil, err
	}

	dir := strings.ToLower(className)
	m := &Module{
		ClassName:      className,
		DisplayName:    name,
		Dir:            layout.ModuleDir(dir),
		Entry:          layout.ModuleEntry(dir),
		RuntimeVersion: version,
	}

	if _, err := os.Stat(m.Dir); err == nil {
		return nil, &ExistsError{Name: name, Dir: layout.Rel(m.Dir)}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, issue.WrapWithContext(err, "inspect module directory", m.Dir)
	}

	var buf bytes.Buffer
	if err := moduleTemplate.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("render module template: %w", err)
	}

	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return nil, issue.WrapWithContext(err, "create module directory", m.Dir)
	}
	if err := os.WriteFile(m.Entry, buf.Bytes(), 0o644); err != nil {
		return nil, issue.WrapWithContext(err, "write module entry", m.Entry)
	}
	if err := os.Mkdir(filepath.Join(m.Dir, ResourceDirName), 0o755); err != nil {
		return nil, issue.WrapWithContext(err, "create resource directory", m.Dir)
	}

	report.Logf(r, report.LevelSuccess, "Successfully created module in %s", m.Dir)
	return m, nil
}

// ClassName converts a display name to PascalCase. Words are split on any
// non-alphanumeric character and between a lowercase letter and a following
// uppercase one, so "HTML parser" and "html-parser" both become "HtmlParser".
func ClassName(name string) (string, error) {
	var b strings.Builder
	for _, w := range classWords(name) {
		runes := []rune(strings.ToLower(w))
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		return "", &InvalidNameError{Name: name}
	}
	return out, nil
}

func classWords(name string) []string {
	var (
		words []string
		cur   []rune
		prev  rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

// quoteTS renders s as a single-quoted TypeScript string literal.
func quoteTS(s string) string {
	q := strconv.Quote(s)
	q = strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + strings.ReplaceAll(q, "'", `\'`) + "'"
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	if e.Name == "" {
		return "module name cannot be empty"
	}
	return fmt.Sprintf("module name %q does not contain a letter to start a class name", e.Name)
}

// Unwrap returns ErrInvalidModuleName.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidModuleName }

// Error implements the error interface.
func (e *ExistsError) Error() string {
	return fmt.Sprintf("cannot create module with name %s: directory %s exists", e.Name, e.Dir)
}

// Unwrap returns ErrModuleExists.
func (e *ExistsError) Unwrap() error { return ErrModuleExists }
