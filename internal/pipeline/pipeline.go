// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs a repository build end to end: discovery, version
// resolution, type checking, bundling, metadata extraction, manifest
// assembly, commit and the optional site render.
//
// Stages run strictly in order and hand their output to the next one. Any
// fatal error aborts the run before the commit, so the output root is
// either fully replaced or left untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/depver"
	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/discovery"
	"github.com/mochi/mochi-cli/internal/manifest"
	"github.com/mochi/mochi-cli/internal/project"
	"github.com/mochi/mochi-cli/internal/report"
	"github.com/mochi/mochi-cli/internal/sandbox"
	"github.com/mochi/mochi-cli/internal/site"
	"github.com/mochi/mochi-cli/internal/typecheck"
)

type (
	// Clock abstracts time for stage timings.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Options configures a Runner. Nil collaborators get production defaults.
	Options struct {
		Checker  typecheck.Checker
		Bundler  bundler.Bundler
		Reporter report.Reporter
		Clock    Clock
		// LogSkips reports a notice for every src/ directory without an entry file.
		LogSkips bool
		// Target is the ECMAScript target passed to the bundler.
		Target string
		// EvalTimeout bounds each sandbox evaluation.
		EvalTimeout time.Duration
		// Concurrency bounds parallel discovery checks and evaluations.
		Concurrency int
	}

	// Runner executes builds. At most one run per output directory is active
	// at a time; a second concurrent Run for the same output fails with
	// BusyError.
	Runner struct {
		opts Options

		mu     sync.Mutex
		active map[string]struct{}
	}

	// Result describes a run. Fields are filled as far as the run got.
	// Output is the absolute output root.
	Result struct {
		RunID    string
		Request  project.BuildRequest
		Output   string
		Modules  []discovery.ModuleUnit
		Skipped  []discovery.Diagnostic
		Version  string
		Manifest *manifest.Manifest
		// Diagnostics from type checking and bundling, in report order.
		Diagnostics []diag.Diagnostic
		Written     []string
		Timings     Timings
		// SiteErr is set when the site could not be rendered. The commit stands.
		SiteErr error
	}

	systemClock struct{}

	run struct {
		*Runner
		ctx      context.Context
		req      project.BuildRequest
		reporter report.Reporter
		layout   project.Layout
		out      project.OutputLayout
		res      *Result
	}
)

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Checker == nil {
		opts.Checker = &typecheck.TSC{}
	}
	if opts.Bundler == nil {
		opts.Bundler = bundler.Esbuild{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	opts.Reporter = report.OrNop(opts.Reporter)
	return &Runner{opts: opts, active: make(map[string]struct{})}
}

// Run builds the repository described by req.
func (r *Runner) Run(ctx context.Context, req project.BuildRequest) (Result, error) {
	req = req.Normalized()
	res := Result{RunID: uuid.NewString(), Request: req}

	if ok, errs := req.IsValid(); !ok {
		return res, errors.Join(errs...)
	}
	layout, err := project.NewLayout(req.SourceRoot)
	if err != nil {
		return res, err
	}
	out, err := project.NewOutputLayout(req.OutputRoot)
	if err != nil {
		return res, err
	}

	res.Output = out.Root()

	release, err := r.acquire(out.Root())
	if err != nil {
		return res, err
	}
	defer release()

	ru := &run{
		Runner:   r,
		ctx:      ctx,
		req:      req,
		reporter: runReporter(r.opts.Reporter, res.RunID),
		layout:   layout,
		out:      out,
		res:      &res,
	}
	err = ru.execute()
	return res, err
}

// Check discovers the modules under sourceRoot, resolves the runtime version
// and type checks every entry. Nothing is bundled or written.
func (r *Runner) Check(ctx context.Context, sourceRoot string) (Result, error) {
	req := project.BuildRequest{SourceRoot: sourceRoot, TypeCheck: true}.Normalized()
	res := Result{RunID: uuid.NewString(), Request: req}

	layout, err := project.NewLayout(req.SourceRoot)
	if err != nil {
		return res, err
	}
	ru := &run{
		Runner:   r,
		ctx:      ctx,
		req:      req,
		reporter: runReporter(r.opts.Reporter, res.RunID),
		layout:   layout,
		res:      &res,
	}

	report.Logf(ru.reporter, report.LevelInfo, "Building project...")
	for _, st := range []struct {
		stage report.Stage
		fn    func() error
	}{
		{report.StageDiscover, ru.discover},
		{report.StageResolve, ru.resolve},
		{report.StageTypeCheck, ru.typecheck},
	} {
		if err := ru.stage(st.stage, false, st.fn); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Runner) acquire(output string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[output]; busy {
		return nil, &BusyError{Output: output}
	}
	r.active[output] = struct{}{}
	return func() {
		r.mu.Lock()
		delete(r.active, output)
		r.mu.Unlock()
	}, nil
}

// runReporter stamps every event with the run id.
func runReporter(r report.Reporter, id string) report.Reporter {
	return report.Func(func(e report.Event) {
		e.RunID = id
		r.Report(e)
	})
}

func (ru *run) execute() error {
	report.Logf(ru.reporter, report.LevelInfo, "Building project...")

	var (
		units   bundler.Result
		repo    sandbox.Metadata
		modules []manifest.Module
	)

	steps := []struct {
		stage report.Stage
		skip  bool
		fn    func() error
	}{
		{report.StageDiscover, false, ru.discover},
		{report.StageResolve, false, ru.resolve},
		{report.StageTypeCheck, !ru.req.TypeCheck, ru.typecheck},
		{report.StageBundle, false, func() (err error) { units, err = ru.bundle(); return err }},
		{report.StageExtract, false, func() (err error) { repo, modules, err = ru.extract(units); return err }},
		{report.StageAssemble, false, func() error { return ru.assemble(repo, modules) }},
		{report.StageCommit, false, ru.commit},
	}
	for _, s := range steps {
		if err := ru.stage(s.stage, s.skip, s.fn); err != nil {
			return err
		}
	}
	report.Logf(ru.reporter, report.LevelSuccess, "Bundled %d modules into %s", len(modules), ru.out.Root())

	if err := ru.stage(report.StageSite, !ru.req.EmitSite, ru.site); err != nil {
		ru.res.SiteErr = err
		report.Warnf(ru.reporter, "%v", err)
	}
	return nil
}

// stage times fn and reports its progress. The context is checked before
// every stage so a superseded run stops at the next boundary.
func (ru *run) stage(st report.Stage, skip bool, fn func() error) error {
	if skip {
		ru.reporter.Report(report.Event{Kind: report.KindStage, Stage: st, Status: report.StatusSkipped})
		return nil
	}
	if err := ru.ctx.Err(); err != nil {
		return err
	}

	start := ru.opts.Clock.Now()
	ru.reporter.Report(report.Event{Kind: report.KindStage, Stage: st, Status: report.StatusWorking})
	err := fn()
	elapsed := ru.opts.Clock.Since(start)
	ru.res.Timings.Set(st, elapsed)

	if err != nil {
		ru.reporter.Report(report.Event{Kind: report.KindStage, Stage: st, Status: report.StatusError, Elapsed: elapsed, Err: err})
		if ctxErr := ru.ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return &StageError{Stage: st, Err: err}
	}
	ru.reporter.Report(report.Event{Kind: report.KindStage, Stage: st, Status: report.StatusDone, Elapsed: elapsed})
	return nil
}

func (ru *run) discover() error {
	found, err := discovery.Discover(ru.ctx, ru.layout, discovery.Options{
		Log:         ru.opts.LogSkips,
		Reporter:    ru.reporter,
		Concurrency: ru.opts.Concurrency,
	})
	if err != nil {
		return err
	}
	if _, err := os.Stat(ru.layout.RepositoryEntry()); err != nil {
		return &MissingRepositoryError{Path: ru.layout.Rel(ru.layout.RepositoryEntry())}
	}
	ru.res.Modules = found.Modules
	ru.res.Skipped = found.Diagnostics
	return nil
}

func (ru *run) resolve() error {
	v, err := depver.Resolve(ru.layout, ru.reporter)
	if err != nil {
		return err
	}
	ru.res.Version = v
	return nil
}

func (ru *run) typecheck() error {
	files := make([]string, 0, len(ru.res.Modules)+1)
	for _, m := range ru.res.Modules {
		files = append(files, m.Entry)
	}
	files = append(files, ru.layout.RepositoryEntry())

	program := typecheck.Program{
		Root:    ru.layout.Root(),
		Files:   files,
		Options: typecheck.ForceOptions(typecheck.LoadCompilerOptions(ru.layout, ru.reporter)),
	}
	ds, err := typecheck.Run(ru.ctx, ru.opts.Checker, program, ru.reporter)
	ru.res.Diagnostics = append(ru.res.Diagnostics, ds...)
	if err != nil {
		return err
	}
	report.Logf(ru.reporter, report.LevelSuccess, "Project built successfully!")
	return nil
}

func (ru *run) bundle() (bundler.Result, error) {
	plan := bundler.Plan{
		Root:       ru.layout.Root(),
		Repository: ru.layout.RepositoryEntry(),
		Modules:    make([]bundler.Entry, 0, len(ru.res.Modules)),
		Minify:     ru.req.ShouldMinify(),
		Target:     ru.opts.Target,
	}
	for _, m := range ru.res.Modules {
		plan.Modules = append(plan.Modules, bundler.Entry{Name: m.Name, Path: m.Entry})
	}

	out, err := ru.opts.Bundler.Bundle(ru.ctx, plan)
	var be *bundler.Error
	if errors.As(err, &be) {
		report.Diagnostics(ru.reporter, be.Diagnostics)
		ru.res.Diagnostics = append(ru.res.Diagnostics, be.Diagnostics...)
	}
	if err != nil {
		return bundler.Result{}, err
	}
	report.Diagnostics(ru.reporter, out.Warnings)
	ru.res.Diagnostics = append(ru.res.Diagnostics, out.Warnings...)
	return out, nil
}

// extract reads the repository metadata, then every module's metadata
// concurrently. Module order follows the bundle result.
func (ru *run) extract(units bundler.Result) (sandbox.Metadata, []manifest.Module, error) {
	sb := sandbox.Sandbox{Root: ru.layout.Root(), Timeout: ru.opts.EvalTimeout, Reporter: ru.reporter}

	repo, err := sb.ReadRepository(ru.ctx, units.Repository)
	if err != nil {
		return nil, nil, err
	}

	modules := make([]manifest.Module, len(units.Modules))
	g, gctx := errgroup.WithContext(ru.ctx)
	g.SetLimit(ru.opts.Concurrency)
	for i, unit := range units.Modules {
		g.Go(func() error {
			meta, err := sb.ReadModuleMetadata(gctx, unit)
			if err != nil {
				return err
			}
			modules[i] = manifest.Module{Unit: unit, Declared: meta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return repo, modules, nil
}

func (ru *run) assemble(repo sandbox.Metadata, modules []manifest.Module) error {
	m, err := manifest.Assemble(repo, modules, ru.res.Version)
	if err != nil {
		return err
	}
	ru.res.Manifest = m
	return nil
}

func (ru *run) commit() error {
	written, err := manifest.Commit(ru.out, ru.res.Manifest)
	ru.res.Written = written
	return err
}

func (ru *run) site() error {
	if err := site.Write(ru.out, ru.res.Manifest); err != nil {
		return err
	}
	ru.res.Written = append(ru.res.Written, ru.out.Site())
	return nil
}

// Rel returns path relative to the output root of res, for display.
func (res Result) Rel(path string) string {
	rel, err := filepath.Rel(res.Output, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
