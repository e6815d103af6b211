// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/scaffold"
)

func newInitCommand(app *App) *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create repository content from templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	initCmd.AddCommand(&cobra.Command{
		Use:   "module <name> [source]",
		Short: "Create a new module",
		Long: `Create src/<name>/index.ts with a module class and an empty res/ directory.

The class name is the PascalCase form of <name> and the directory is its
lowercase form, so "Manga Dex" becomes src/mangadex with class MangaDex.
@mochi/js must be installed in the repository.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitModule(cmd, app, args)
		},
	})
	return initCmd
}

func runInitModule(cmd *cobra.Command, app *App, args []string) error {
	src, err := sourceRoot(args[1:])
	if err != nil {
		return app.fail(err)
	}
	cfg, err := app.loadConfig(cmd.Context(), src)
	if err != nil {
		return app.fail(err)
	}
	layout, err := project.NewLayout(src)
	if err != nil {
		return app.fail(err)
	}

	r := app.reporter(src, cfg, false)
	report.Logf(r, report.LevelInfo, "Initializing new module...")
	if _, err := scaffold.Create(layout, scaffold.Options{Name: args[0], Reporter: r}); err != nil {
		return app.fail(err)
	}
	return nil
}
