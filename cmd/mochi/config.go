// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/mochi/mochi-cli/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect mochi configuration",
		Long: `Inspect mochi configuration.

Settings are read from mochi.cue in the project root, or from the file
given with --config, and can be overridden with MOCHI_* environment
variables, e.g. MOCHI_SERVE_PORT=8080.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show [source]",
		Short: "Show the resolved configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, args, format)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml or json")

	cfgCmd.AddCommand(show, &cobra.Command{
		Use:   "path [source]",
		Short: "Show which configuration file is used",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd, app, args)
		},
	})
	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, args []string, format string) error {
	src, err := sourceRoot(args)
	if err != nil {
		return app.fail(err)
	}
	cfg, err := app.loadConfig(cmd.Context(), src)
	if err != nil {
		return app.fail(err)
	}

	data, err := encodeSettings(cfg, format)
	if err != nil {
		return app.fail(err)
	}
	_, err = app.stdout.Write(data)
	return err
}

func encodeSettings(cfg *config.Config, format string) ([]byte, error) {
	settings := cfg.Settings()
	switch strings.ToLower(format) {
	case "toml":
		return toml.Marshal(settings)
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: toml, json)", format)
	}
}

func showConfigPath(cmd *cobra.Command, app *App, args []string) error {
	src, err := sourceRoot(args)
	if err != nil {
		return app.fail(err)
	}
	loaded, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.cfgFile, ProjectRoot: src})
	if err != nil {
		return app.fail(err)
	}
	if loaded.Path == "" {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no configuration file, using defaults"))
		return nil
	}
	fmt.Fprintln(app.stdout, loaded.Path)
	return nil
}
