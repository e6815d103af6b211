// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mochi/mochi-cli/internal/config"
	"github.com/mochi/mochi-cli/internal/devserver"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/watch"
	"github.com/mochi/mochi-cli/pkg/types"
)

var errServerStopped = errors.New("dev server stopped unexpectedly")

type serveFlags struct {
	site bool
	host string
	port int
}

func newServeCommand(app *App) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve [source] [output]",
		Short: "Rebuild on change and serve the repository locally",
		Long: `Build the repository for development, serve the output directory over
HTTP and rebuild whenever a source file changes.

Development builds skip type checking and minification. A change during a
build cancels it and starts over. Prometheus metrics for requests and
builds are served at ` + devserver.MetricsPath + `.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, app, args, flags)
		},
	}
	cmd.Flags().BoolVarP(&flags.site, "site", "s", false, "render index.html from the manifest")
	cmd.Flags().StringVar(&flags.host, "host", "", "interface to listen on (default from config, 0.0.0.0)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "port to listen on (default from config, 10443)")
	return cmd
}

func runServe(cmd *cobra.Command, app *App, args []string, flags serveFlags) error {
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

	host := cfg.Serve.Host
	if flags.host != "" {
		host = flags.host
	}
	port := cfg.Serve.Port
	if cmd.Flags().Changed("port") {
		port = types.ListenPort(flags.port)
	}

	logs := app.reporter(src, cfg, true)
	srv, err := devserver.New(devserver.Config{Root: out, Host: host, Port: port, Logger: logs.Logger()})
	if err != nil {
		return app.fail(err)
	}
	reporter := report.Multi(logs, srv.Metrics())
	runner := app.runner(cfg, reporter)

	req := project.BuildRequest{
		SourceRoot: src,
		OutputRoot: out,
		EmitSite:   flags.site || cfg.Site,
		DevServe:   true,
	}

	w, err := watch.New(watch.Config{
		Ignore:     serveIgnores(src, out, cfg),
		Debounce:   cfg.Watch.Debounce,
		BaseDir:    src,
		InitialRun: true,
		Reporter:   reporter,
		OnChange: func(ctx context.Context, _ []string) error {
			res, err := runner.Run(ctx, req)
			if err != nil {
				return err
			}
			srv.Metrics().SetModules(len(res.Manifest.Modules))
			return nil
		},
	})
	if err != nil {
		return app.fail(err)
	}

	if err := srv.Start(ctx); err != nil {
		return app.fail(err)
	}
	defer func() { _ = srv.Stop() }()

	for _, u := range srv.URLs() {
		logs.Logger().Info("Serving "+out, "url", u)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return awaitServer(gctx, srv.Err()) })
	if err := g.Wait(); err != nil {
		return app.fail(err)
	}
	return nil
}

// awaitServer blocks until ctx is done or the server reports on errs. Any
// report while ctx is live is an error, so the watcher does not keep
// rebuilding for a server that is gone.
func awaitServer(ctx context.Context, errs <-chan error) error {
	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return fmt.Errorf("dev server: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		return errServerStopped
	case <-ctx.Done():
		return nil
	}
}

// serveIgnores adds the output directory to the configured ignores when it
// lives inside the project, so writing the build does not trigger a rebuild.
func serveIgnores(src, out string, cfg *config.Config) []string {
	ignores := append([]string{}, cfg.Watch.Ignore...)
	rel, err := filepath.Rel(src, out)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ignores
	}
	rel = filepath.ToSlash(rel)
	return append(ignores, rel, rel+"/**")
}
