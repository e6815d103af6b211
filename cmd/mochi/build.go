// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mochi/mochi-cli/internal/diagfmt"
	"github.com/mochi/mochi-cli/internal/pipeline"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
)

type bundleFlags struct {
	site    bool
	minify  bool
	noCheck bool
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [source]",
		Short: "Type check a repository",
		Long: `Type check every module entry and the repository descriptor.

The compiler options come from tsconfig.json when it parses. noEmit, strict,
Node module resolution and isolated modules are always enforced. Nothing is
written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, args)
		},
	}
}

func newBundleCommand(app *App) *cobra.Command {
	var flags bundleFlags
	cmd := &cobra.Command{
		Use:   "bundle [source] [output]",
		Short: "Bundle modules into a repository",
		Long: `Type check, bundle every module and write the repository to the output
directory: Manifest.json plus one script per module under modules/.

The output directory is replaced only after every stage succeeded. It
defaults to the configured output (dist) inside the source directory.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(cmd, app, args, flags)
		},
	}
	cmd.Flags().BoolVarP(&flags.site, "site", "s", false, "render index.html from the manifest")
	cmd.Flags().BoolVar(&flags.minify, "minify", true, "minify module scripts")
	cmd.Flags().BoolVar(&flags.noCheck, "no-check", false, "skip type checking")
	return cmd
}

func runCheck(cmd *cobra.Command, app *App, args []string) error {
	ctx := cmd.Context()
	src, err := sourceRoot(args)
	if err != nil {
		return app.fail(err)
	}
	cfg, err := app.loadConfig(ctx, src)
	if err != nil {
		return app.fail(err)
	}

	// Diagnostics go to stdout as a listing instead of through the log.
	logs := app.reporter(src, cfg, false)
	r := report.Func(func(e report.Event) {
		if e.Kind != report.KindDiagnostic {
			logs.Report(e)
		}
	})
	res, err := app.runner(cfg, r).Check(ctx, src)
	if werr := diagfmt.Write(app.stdout, res.Diagnostics, diagfmt.Options{Root: src, Color: true}); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return app.fail(err)
	}
	return nil
}

func runBundle(cmd *cobra.Command, app *App, args []string, flags bundleFlags) error {
	ctx := cmd.Context()
	src, err := sourceRoot(args)
	if err != nil {
		return app.fail(err)
	}
	cfg, err := app.loadConfig(ctx, src)
	if err != nil {
		return app.fail(err)
	}
	out, err := outputRoot(src, args, cfg)
	if err != nil {
		return app.fail(err)
	}

	req := project.BuildRequest{
		SourceRoot: src,
		OutputRoot: out,
		EmitSite:   flags.site || cfg.Site,
		TypeCheck:  cfg.TypeCheck.Enabled && !flags.noCheck,
	}
	if cmd.Flags().Changed("minify") {
		req.Minify = &flags.minify
	}

	r := app.reporter(src, cfg, false)
	res, err := app.runner(cfg, r).Run(ctx, req)
	if err != nil {
		return app.fail(err)
	}

	printWritten(app, res)
	if app.verbose {
		printTimings(app, res.Timings)
	}
	return nil
}

func printWritten(app *App, res pipeline.Result) {
	for _, path := range res.Written {
		fmt.Fprintln(app.stdout, CmdStyle.Render(res.Rel(path)))
	}
}

func printTimings(app *App, t pipeline.Timings) {
	for _, st := range report.Stages {
		if !t.Has(st) {
			continue
		}
		fmt.Fprintln(app.stderr, VerboseStyle.Render(fmt.Sprintf("%-10s %s", st, t.Duration(st).Round(time.Millisecond))))
	}
	fmt.Fprintln(app.stderr, VerboseStyle.Render(fmt.Sprintf("%-10s %s", "total", t.Sum().Round(time.Millisecond))))
}
