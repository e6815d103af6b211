// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/config"
	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/internal/pipeline"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/typecheck"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and delegates through it.
	App struct {
		Config  config.Provider
		Checker typecheck.Checker
		Bundler bundler.Bundler
		stdout  io.Writer
		stderr  io.Writer

		verbose  bool
		cfgFile  string
		logLevel string
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config  config.Provider
		Checker typecheck.Checker
		Bundler bundler.Bundler
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config:  deps.Config,
		Checker: deps.Checker,
		Bundler: deps.Bundler,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// loadConfig reads configuration for the project at root.
func (a *App) loadConfig(ctx context.Context, root string) (*config.Config, error) {
	loaded, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile, ProjectRoot: root})
	if err != nil {
		return nil, err
	}
	return loaded.Config, nil
}

// reporter returns a log reporter for a project. The --log-level flag wins
// over the configured level, and --verbose wins over both.
func (a *App) reporter(root string, cfg *config.Config, timestamps bool) *report.LogReporter {
	level := string(cfg.LogLevel)
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.verbose {
		level = string(config.LogLevelDebug)
	}
	return report.NewLogReporter(a.stderr, report.LogOptions{Level: level, Root: root, Timestamps: timestamps})
}

// runner creates a pipeline runner for cfg.
func (a *App) runner(cfg *config.Config, r report.Reporter) *pipeline.Runner {
	checker := a.Checker
	if checker == nil {
		checker = &typecheck.TSC{Command: cfg.TypeCheck.Command}
	}
	return pipeline.New(pipeline.Options{
		Checker:  checker,
		Bundler:  a.Bundler,
		Reporter: r,
		LogSkips: true,
		Target:   string(cfg.Bundle.Target),
	})
}

// sourceRoot returns the absolute project root from an optional argument.
func sourceRoot(args []string) (string, error) {
	src := "."
	if len(args) > 0 && args[0] != "" {
		src = args[0]
	}
	return filepath.Abs(src)
}

// outputRoot resolves the output root: an explicit argument relative to the
// working directory, otherwise the configured output relative to the project.
func outputRoot(src string, args []string, cfg *config.Config) (string, error) {
	if len(args) > 1 && args[1] != "" {
		return filepath.Abs(args[1])
	}
	if filepath.IsAbs(cfg.Output) {
		return filepath.Clean(cfg.Output), nil
	}
	return filepath.Join(src, cfg.Output), nil
}

// fail renders err on stderr and returns an ExitError carrying it. Build
// failures exit with ExitBuildFailed, everything else with ExitFailure.
func (a *App) fail(err error) error {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, a.verbose))
	if entry := issue.Lookup(err); entry != nil {
		if rendered, renderErr := entry.Render(""); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return &ExitError{Code: exitCodeFor(err), Err: err}
}

// formatErrorForDisplay uses ActionableError formatting when available and
// shows the full chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return strings.TrimSpace(err.Error())
}
