// SPDX-License-Identifier: MPL-2.0

// Package sandbox evaluates compiled units in an isolated JavaScript runtime
// to read the metadata they expose.
//
// Every evaluation gets a fresh runtime with no filesystem, network or
// process access; the only host binding is a console that forwards to the
// reporter. Evaluation is interrupted when the context is cancelled or the
// time limit elapses.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/report"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is the interrupt value used when the time limit elapses.
var ErrTimeout = errors.New("evaluation timed out")

type (
	// Sandbox evaluates compiled units. The zero value is usable.
	Sandbox struct {
		// Root relativises file paths in errors.
		Root string
		// Timeout bounds each evaluation. Zero means DefaultTimeout.
		Timeout time.Duration
		// Reporter receives console output of evaluated scripts.
		Reporter report.Reporter
	}

	// Metadata is a JSON snapshot of a value read out of the runtime.
	Metadata map[string]any

	// EvalError is returned when a script throws or is interrupted.
	EvalError struct {
		Unit string
		Path string
		Err  error
	}
)

// evaluate runs unit in a fresh runtime and hands the default export to
// read. The interrupt stays armed while read runs because reading may call
// back into script code.
func (s Sandbox) evaluate(ctx context.Context, unit bundler.CompiledUnit, read func(vm *goja.Runtime, def goja.Value) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	vm := goja.New()
	installConsole(vm, report.OrNop(s.Reporter), unit.Entry)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() { vm.Interrupt(ErrTimeout) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	if _, err := vm.RunScript(unit.Entry, unit.Source); err != nil {
		return s.evalError(unit, err)
	}

	var def goja.Value
	if src := vm.Get(bundler.GlobalName); present(src) {
		def = src.ToObject(vm).Get("default")
	}
	if err := guard(func() error { return read(vm, def) }); err != nil {
		var ex *goja.Exception
		var in *goja.InterruptedError
		if errors.As(err, &ex) || errors.As(err, &in) {
			return s.evalError(unit, err)
		}
		return err
	}
	return nil
}

// guard turns script exceptions raised while reading properties from Go
// (e.g. a throwing getter) into errors.
func guard(fn func() error) (err error) {
	defer func() {
		switch v := recover().(type) {
		case nil:
		case *goja.Exception:
			err = v
		case *goja.InterruptedError:
			err = v
		default:
			panic(v)
		}
	}()
	return fn()
}

func (s Sandbox) evalError(unit bundler.CompiledUnit, err error) error {
	var in *goja.InterruptedError
	if errors.As(err, &in) {
		if cause, ok := in.Value().(error); ok {
			err = cause
		}
	}
	return &EvalError{Unit: string(unit.LogicalName), Path: s.rel(unit.Entry), Err: err}
}

func (s Sandbox) rel(path string) string {
	if s.Root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// present reports whether v is a truthy value.
func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) && v.ToBoolean()
}

// snapshot serialises v with the runtime's own JSON.stringify, so getters
// and toJSON behave exactly as in the browser, then decodes the result.
func snapshot(vm *goja.Runtime, v goja.Value) (Metadata, error) {
	jsonObj := vm.Get("JSON").ToObject(vm)
	stringify, ok := goja.AssertFunction(jsonObj.Get("stringify"))
	if !ok {
		return nil, errors.New("JSON.stringify is not callable")
	}
	out, err := stringify(jsonObj, v)
	if err != nil {
		return nil, err
	}
	if !present(out) {
		return nil, errors.New("value is not serialisable")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(out.String())))
	dec.UseNumber()
	var m Metadata
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("value is not an object: %w", err)
	}
	if m == nil {
		return nil, errors.New("value is not an object")
	}
	return m, nil
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s (%s): %v", e.Unit, e.Path, e.Err)
}

// Unwrap returns the underlying script error.
func (e *EvalError) Unwrap() error { return e.Err }
