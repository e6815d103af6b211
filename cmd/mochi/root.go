// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mochi",
		Short: "Build and bundle mochi module repositories",
		Long: TitleStyle.Render("mochi") + SubtitleStyle.Render(" - build and bundle mochi module repositories") + `

A repository keeps one directory per module under src/, each with an
index.ts entry, and a repository descriptor at src/index.ts. mochi type
checks the sources, bundles every module into a standalone script, reads
the metadata each module exposes and writes Manifest.json.

` + SubtitleStyle.Render("Examples:") + `
  mochi check                 Type check the repository in the current directory
  mochi bundle . dist --site  Bundle into dist/ and render index.html
  mochi serve                 Rebuild on change and serve dist/ locally
  mochi init module "My Src"  Create src/mysrc/index.ts`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is <source>/mochi.cue)")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newCheckCommand(app),
		newBundleCommand(app),
		newServeCommand(app),
		newInspectCommand(app),
		newConfigCommand(app),
		newInitCommand(app),
		newVersionCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mochi version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(app.stdout, "mochi "+getVersionString())
			return err
		},
	}
}
