// SPDX-License-Identifier: MPL-2.0

// Package manifest assembles the repository manifest from extracted
// metadata and commits it, together with the module scripts, to the output
// root.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/project"
)

// Derived module fields.
const (
	FieldID      = "id"
	FieldName    = "name"
	FieldFile    = "file"
	FieldMeta    = "meta"
	FieldVersion = "mochiJSVersion"
	FieldHash    = "hash"
)

var (
	// ErrDuplicateModuleID is the sentinel wrapped by DuplicateModuleIDError.
	ErrDuplicateModuleID = errors.New("duplicate module id")
	// ErrInvalidModuleID is the sentinel wrapped by InvalidModuleIDError.
	ErrInvalidModuleID = errors.New("invalid module id")
)

type (
	// Fields is a JSON object read out of a compiled unit.
	Fields = map[string]any

	// Module is one extracted module: its compiled unit and declared metadata.
	Module struct {
		Unit     bundler.CompiledUnit
		Declared Fields
	}

	// Manifest describes a built repository. Modules keep discovery order.
	Manifest struct {
		Modules    []Fields `json:"modules"`
		Repository Fields   `json:"repository"`

		scripts []script
	}

	script struct {
		name   string
		source string
	}

	// DuplicateModuleIDError is returned when two modules resolve to the same id.
	DuplicateModuleIDError struct {
		ID     string
		First  string
		Second string
	}

	// InvalidModuleIDError is returned when a module declares an id that is
	// not a string, or when no usable id can be derived from its name.
	InvalidModuleIDError struct {
		Module string
		Reason string
	}
)

// Assemble builds the manifest. Declared module fields are kept; id is
// derived from name when absent; file, meta, mochiJSVersion and hash are
// always set.
func Assemble(repository Fields, modules []Module, version string) (*Manifest, error) {
	if repository == nil {
		return nil, errors.New("repository metadata is required")
	}

	m := &Manifest{
		Repository: repository,
		Modules:    make([]Fields, 0, len(modules)),
		scripts:    make([]script, 0, len(modules)),
	}
	owners := make(map[string]string, len(modules))

	for _, mod := range modules {
		name := string(mod.Unit.LogicalName)
		fields := make(Fields, len(mod.Declared)+5)
		for k, v := range mod.Declared {
			fields[k] = v
		}

		id, err := moduleID(name, fields)
		if err != nil {
			return nil, err
		}
		fields[FieldID] = id
		if prev, ok := owners[id]; ok {
			return nil, &DuplicateModuleIDError{ID: id, First: prev, Second: name}
		}
		owners[id] = name

		sum := sha256.Sum256([]byte(mod.Unit.Source))
		fields[FieldFile] = project.ModuleURL(name)
		fields[FieldMeta] = []any{}
		fields[FieldVersion] = version
		fields[FieldHash] = hex.EncodeToString(sum[:])

		m.Modules = append(m.Modules, fields)
		m.scripts = append(m.scripts, script{name: name, source: mod.Unit.Source})
	}
	return m, nil
}

// moduleID returns the declared id, or the id derived from name when none
// is declared. An empty string counts as not declared.
func moduleID(module string, fields Fields) (string, error) {
	id := ""
	if raw, ok := fields[FieldID]; ok && raw != nil {
		declared, isString := raw.(string)
		if !isString {
			return "", &InvalidModuleIDError{Module: module, Reason: fmt.Sprintf("declared id must be a string, got %T", raw)}
		}
		id = declared
	}
	if id == "" {
		display, _ := fields[FieldName].(string)
		id = ToID(display)
	}
	if strings.Trim(id, "-") == "" {
		return "", &InvalidModuleIDError{Module: module, Reason: "no id is declared and none can be derived from its name"}
	}
	return id, nil
}

// Marshal encodes the manifest deterministically: keys sorted, two-space
// indentation, trailing newline.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads a committed manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Repository == nil {
		return nil, fmt.Errorf("parse %s: missing repository", path)
	}
	return &m, nil
}

// Error implements the error interface.
func (e *DuplicateModuleIDError) Error() string {
	return fmt.Sprintf("modules `%s` and `%s` both resolve to id %q", e.First, e.Second, e.ID)
}

// Unwrap returns ErrDuplicateModuleID.
func (e *DuplicateModuleIDError) Unwrap() error { return ErrDuplicateModuleID }

// IssueID maps the error onto the catalog.
func (e *DuplicateModuleIDError) IssueID() issue.Id { return issue.DuplicateModuleIdId }

// Error implements the error interface.
func (e *InvalidModuleIDError) Error() string {
	return fmt.Sprintf("module `%s` has no usable id: %s", e.Module, e.Reason)
}

// Unwrap returns ErrInvalidModuleID.
func (e *InvalidModuleIDError) Unwrap() error { return ErrInvalidModuleID }

// IssueID maps the error onto the catalog.
func (e *InvalidModuleIDError) IssueID() issue.Id { return issue.ModuleContractId }
