// SPDX-License-Identifier: MPL-2.0

package typecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/issue"
)

// DefaultCommand runs the compiler located by TSC. The command is a shell
// script evaluated by an embedded interpreter with MOCHI_TSC and
// MOCHI_TSCONFIG set.
const DefaultCommand = `"$MOCHI_TSC" --project "$MOCHI_TSCONFIG" --pretty false`

// exitCommandNotFound is the shell status for an unknown command.
const exitCommandNotFound = 127

type (
	// TSC checks programs with the TypeScript compiler.
	TSC struct {
		// Command is the shell command template. Empty means DefaultCommand.
		Command string
		// Compiler is the compiler executable. Empty means node_modules/.bin/tsc
		// under the root, then tsc on PATH.
		Compiler string
		// Env is appended to the process environment.
		Env []string
	}

	// NotFoundError is returned when no compiler executable can be located.
	NotFoundError struct {
		Searched []string
	}

	// ExecError is returned when the compiler ran but produced no
	// diagnostics to explain a failure.
	ExecError struct {
		ExitCode int
		Stderr   string
	}
)

// Check writes a temporary project file next to the project's own, runs
// the command and parses its output.
func (c *TSC) Check(ctx context.Context, p Program) ([]diag.Diagnostic, error) {
	compiler, err := c.locate(p.Root)
	if err != nil {
		return nil, err
	}

	cfgPath, err := writeProjectFile(p)
	if err != nil {
		return nil, err
	}
	defer os.Remove(cfgPath) //nolint:errcheck // best-effort cleanup

	command := c.Command
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "typecheck")
	if err != nil {
		return nil, fmt.Errorf("parse type-check command: %w", err)
	}

	env := append(os.Environ(), c.Env...)
	env = append(env, "MOCHI_TSC="+compiler, "MOCHI_TSCONFIG="+cfgPath)

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(p.Root),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("create type-check runner: %w", err)
	}

	runErr := runner.Run(ctx, prog)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	code := 0
	if runErr != nil {
		var status interp.ExitStatus
		if !errors.As(runErr, &status) {
			return nil, fmt.Errorf("run type checker: %w", runErr)
		}
		code = int(status)
	}

	ds := ParseOutput(stdout.String(), p.Root)
	if code == exitCommandNotFound && len(ds) == 0 {
		return nil, &NotFoundError{Searched: []string{compiler}}
	}
	if code != 0 && len(ds) == 0 {
		return nil, &ExecError{ExitCode: code, Stderr: strings.TrimSpace(stderr.String())}
	}
	return ds, nil
}

func (c *TSC) locate(root string) (string, error) {
	if c.Compiler != "" {
		return c.Compiler, nil
	}
	name := "tsc"
	if isWindows() {
		name = "tsc.cmd"
	}
	local := filepath.Join(root, "node_modules", ".bin", name)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}
	if path, err := exec.LookPath("tsc"); err == nil {
		return path, nil
	}
	return "", &NotFoundError{Searched: []string{local, "tsc on PATH"}}
}

// writeProjectFile writes a tsconfig holding the options and the explicit
// file list into the project root so relative options keep their meaning.
func writeProjectFile(p Program) (string, error) {
	cfg := map[string]any{
		"compilerOptions": p.Options,
		"files":           p.Files,
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode type-check project: %w", err)
	}
	path := filepath.Join(p.Root, "tsconfig.mochi-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write type-check project: %w", err)
	}
	return path, nil
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "typescript compiler not found (searched " + strings.Join(e.Searched, ", ") + ")"
}

// IssueID maps the error onto the catalog.
func (e *NotFoundError) IssueID() issue.Id { return issue.TypeCheckerNotFoundId }

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("type checker exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("type checker exited with status %d: %s", e.ExitCode, e.Stderr)
}
