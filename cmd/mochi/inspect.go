// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mochi/mochi-cli/internal/manifest"
	"github.com/mochi/mochi-cli/internal/project"
)

func newInspectCommand(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "inspect [output]",
		Short: "Summarize a built repository",
		Long: `Read Manifest.json from an output directory and print the repository and
its modules. The output directory defaults to ./dist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(app, args, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without terminal styling")
	return cmd
}

func runInspect(app *App, args []string, raw bool) error {
	out := project.DefaultOutputDirName
	if len(args) > 0 {
		out = args[0]
	}
	path := filepath.Join(out, project.ManifestFileName)

	m, err := manifest.Load(path)
	if err != nil {
		return app.fail(fmt.Errorf("inspect %s: %w", path, err))
	}

	md := manifestMarkdown(m)
	if raw {
		_, err := fmt.Fprint(app.stdout, md)
		return err
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return app.fail(err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return app.fail(err)
	}
	_, err = fmt.Fprint(app.stdout, rendered)
	return err
}

// manifestMarkdown summarizes m as a heading, the repository description and
// a table of modules in manifest order.
func manifestMarkdown(m *manifest.Manifest) string {
	var b strings.Builder

	name := field(m.Repository, "name")
	if name == "" {
		name = "Module Repository"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	if desc := field(m.Repository, "description"); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}

	if len(m.Modules) == 0 {
		b.WriteString("_No modules._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Modules (%d)\n\n", len(m.Modules))
	b.WriteString("| ID | Name | Version | @mochi/js | File |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, mod := range m.Modules {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(field(mod, manifest.FieldID)),
			cell(field(mod, manifest.FieldName)),
			cell(field(mod, "version")),
			cell(field(mod, manifest.FieldVersion)),
			cell(field(mod, manifest.FieldFile)),
		)
	}
	return b.String()
}

func field(f manifest.Fields, key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// cell escapes pipes so a value cannot break the table.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
