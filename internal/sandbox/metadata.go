// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/issue"
)

type (
	// RepositoryContractError is returned when the repository descriptor
	// does not default-export its metadata.
	RepositoryContractError struct {
		Path   string
		Reason string
	}

	// ModuleContractError is returned when a module does not expose its
	// metadata through a default-exported class.
	ModuleContractError struct {
		Module string
		Path   string
		Reason string
	}
)

// ReadRepository evaluates the repository unit and returns its default
// export. The export must be a truthy object.
func (s Sandbox) ReadRepository(ctx context.Context, unit bundler.CompiledUnit) (Metadata, error) {
	var out Metadata
	err := s.evaluate(ctx, unit, func(vm *goja.Runtime, def goja.Value) error {
		if !present(def) {
			return &RepositoryContractError{Path: s.rel(unit.Entry), Reason: "no default export found"}
		}
		m, err := snapshot(vm, def)
		if err != nil {
			return &RepositoryContractError{Path: s.rel(unit.Entry), Reason: err.Error()}
		}
		out = m
		return nil
	})
	return out, err
}

// ReadModuleMetadata evaluates a module unit, constructs its default
// export with no arguments and returns the instance's metadata.
func (s Sandbox) ReadModuleMetadata(ctx context.Context, unit bundler.CompiledUnit) (Metadata, error) {
	var out Metadata
	err := s.evaluate(ctx, unit, func(vm *goja.Runtime, def goja.Value) error {
		fail := func(reason string) error {
			return &ModuleContractError{Module: string(unit.LogicalName), Path: s.rel(unit.Entry), Reason: reason}
		}
		if !present(def) {
			return fail("no default export found")
		}
		if _, ok := goja.AssertConstructor(def); !ok {
			return fail("the default export is not a class")
		}
		instance, err := vm.New(def)
		if err != nil {
			return err
		}
		meta := instance.Get("metadata")
		if !present(meta) {
			return fail("the instance has no metadata")
		}
		m, err := snapshot(vm, meta)
		if err != nil {
			return fail("metadata " + err.Error())
		}
		if err := ProvidesMetadata(m); err != nil {
			return fail(err.Error())
		}
		out = m
		return nil
	})
	return out, err
}

// ProvidesMetadata checks the shape every module metadata must have: a
// non-empty string name.
func ProvidesMetadata(m Metadata) error {
	name, ok := m["name"].(string)
	if !ok {
		return fmt.Errorf("metadata.name must be a string")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("metadata.name must not be empty")
	}
	return nil
}

// Error implements the error interface.
func (e *RepositoryContractError) Error() string {
	return fmt.Sprintf("`%s` must export the repository metadata as its default export: %s", e.Path, e.Reason)
}

// IssueID maps the error onto the catalog.
func (e *RepositoryContractError) IssueID() issue.Id { return issue.RepositoryContractId }

// Error implements the error interface.
func (e *ModuleContractError) Error() string {
	return fmt.Sprintf("module `%s` (%s): the module class must be the default export and expose metadata: %s",
		e.Module, e.Path, e.Reason)
}

// IssueID maps the error onto the catalog.
func (e *ModuleContractError) IssueID() issue.Id { return issue.ModuleContractId }
