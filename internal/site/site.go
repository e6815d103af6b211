// SPDX-License-Identifier: MPL-2.0

// Package site renders a static index page for a built repository.
package site

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/yuin/goldmark"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/manifest"
	"github.com/mochi/mochi-cli/internal/project"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

var page = template.Must(template.New(project.SiteFileName).Parse(indexTemplate))

type (
	view struct {
		Name         string
		Author       string
		Description  template.HTML
		ManifestPath string
		Modules      []moduleView
	}

	moduleView struct {
		ID             string
		Name           string
		Version        string
		Description    template.HTML
		File           string
		RuntimeVersion string
	}

	// RenderError is returned when the page cannot be rendered or written.
	// The committed manifest is unaffected.
	RenderError struct {
		Path string
		Err  error
	}
)

// Render writes the page for m to w. Descriptions are treated as Markdown.
func Render(w io.Writer, m *manifest.Manifest) error {
	v, err := newView(m)
	if err != nil {
		return err
	}
	return page.Execute(w, v)
}

// Write renders the page into the output root.
func Write(out project.OutputLayout, m *manifest.Manifest) error {
	var buf bytes.Buffer
	if err := Render(&buf, m); err != nil {
		return &RenderError{Path: out.Site(), Err: err}
	}
	if err := os.WriteFile(out.Site(), buf.Bytes(), 0o644); err != nil {
		return &RenderError{Path: out.Site(), Err: err}
	}
	return nil
}

func newView(m *manifest.Manifest) (view, error) {
	v := view{
		Name:         str(m.Repository, "name"),
		Author:       author(m.Repository["author"]),
		ManifestPath: "/" + project.ManifestFileName,
		Modules:      make([]moduleView, 0, len(m.Modules)),
	}
	if v.Name == "" {
		v.Name = "Module Repository"
	}

	var err error
	if v.Description, err = markdown(str(m.Repository, "description")); err != nil {
		return view{}, err
	}
	for _, mod := range m.Modules {
		mv := moduleView{
			ID:             str(mod, manifest.FieldID),
			Name:           str(mod, manifest.FieldName),
			Version:        str(mod, "version"),
			File:           str(mod, manifest.FieldFile),
			RuntimeVersion: str(mod, manifest.FieldVersion),
		}
		if mv.Description, err = markdown(str(mod, "description")); err != nil {
			return view{}, err
		}
		v.Modules = append(v.Modules, mv)
	}
	return v, nil
}

// markdown converts src to HTML. Raw HTML in src is not passed through.
func markdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark omits raw HTML by default
}

func str(f manifest.Fields, key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// author accepts either a plain string or an object with a name.
func author(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		return str(a, "name")
	}
	return ""
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Err }

// IssueID maps the error onto the catalog.
func (e *RenderError) IssueID() issue.Id { return issue.SiteRenderFailedId }
