// SPDX-License-Identifier: MPL-2.0

// Package watch provides file-watching with debounced re-execution.
//
// It monitors filesystem paths matching glob patterns and invokes a callback
// after a configurable debounce period. Events within the debounce window are
// coalesced so the callback fires once with the full set of changed paths.
// A callback that is still running when the next batch fires is superseded:
// its context is cancelled, the watcher waits for it to return, then runs
// the callback again with the new batch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/mochi/mochi-cli/internal/report"
)

// DefaultDebounce is the delay before firing the OnChange callback after the
// last filesystem event.
const DefaultDebounce = 300 * time.Millisecond

// ErrInvalidPattern is the sentinel wrapped by pattern validation errors.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// defaultIgnores are always excluded: VCS metadata, dependency trees, editor
// swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/tsconfig.mochi-*.json",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs (e.g. "src/**/*.ts") selecting which
		// files trigger callbacks. An empty slice watches all non-ignored files.
		Patterns []string

		// Ignore are additional doublestar globs merged with the defaults.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to DefaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each callback.
		ClearScreen bool

		// BaseDir is the root directory to watch. Empty means the working directory.
		BaseDir string

		// InitialRun fires the callback once with no changed paths as soon as
		// Run starts.
		InitialRun bool

		// OnChange receives the sorted, deduplicated changed paths relative to
		// BaseDir. Its context is cancelled when a newer batch supersedes it
		// or when Run returns.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout receives the clear-screen sequence. Nil means os.Stdout.
		Stdout io.Writer

		// Reporter receives watcher notices and callback errors.
		Reporter report.Reporter
	}

	// Watcher monitors filesystem paths and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		stdout   io.Writer
		reporter report.Reporter
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}

	// dispatcher serialises callback runs and supersedes the active one.
	dispatcher struct {
		w *Watcher

		mu      sync.Mutex
		pending map[string]struct{}
		cancel  context.CancelFunc
		done    chan struct{}
		closed  bool
		wg      sync.WaitGroup
	}
)

// IsValid reports whether every watch and ignore pattern is a valid glob.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if err := validatePatterns(c.Patterns, "watch"); err != nil {
		errs = append(errs, err)
	}
	if err := validatePatterns(c.Ignore, "ignore"); err != nil {
		errs = append(errs, err)
	}
	return len(errs) == 0, errs
}

// New creates a Watcher and registers every non-ignored directory under
// BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  ignores,
		stdout:   stdout,
		reporter: report.OrNop(cfg.Reporter),
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			report.Warnf(w.reporter, "watch: close after init failure: %v", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean cancellation and a
// *BrokenError when the OS watcher gives up. Before returning it cancels the
// active callback and waits for it.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := &dispatcher{w: w, pending: make(map[string]struct{})}
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)

	defer func() {
		cancel()
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
		d.close()
		if closeErr := w.fsw.Close(); closeErr != nil {
			report.Warnf(w.reporter, "watch: close fsnotify: %v", closeErr)
		}
	}()

	if w.cfg.InitialRun {
		go d.fire(ctx, true)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) || !w.matchesPatterns(rel) {
				// New directories are still registered so later files inside
				// them can match.
				if evt.Has(fsnotify.Create) {
					w.maybeAddDir(evt.Name)
				}
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			d.add(rel)
			timerMu.Lock()
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() { d.fire(ctx, false) })
			} else {
				timer.Reset(w.debounce)
			}
			timerMu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isBroken(err) {
				return &BrokenError{Err: err}
			}
			report.Warnf(w.reporter, "watch: fsnotify error: %v", err)
		}
	}
}

func (d *dispatcher) add(rel string) {
	d.mu.Lock()
	d.pending[filepath.ToSlash(rel)] = struct{}{}
	d.mu.Unlock()
}

// fire drains the pending set, supersedes the active callback and runs a
// new one. force runs the callback even with nothing pending.
func (d *dispatcher) fire(ctx context.Context, force bool) {
	d.mu.Lock()
	if d.closed || ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	if len(d.pending) == 0 && !force {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	defer d.wg.Done()

	changed := slices.Sorted(maps.Keys(d.pending))
	clear(d.pending)

	prevCancel, prevDone := d.cancel, d.done
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel, d.done = cancel, done
	d.mu.Unlock()

	defer close(done)
	defer cancel()

	if prevCancel != nil {
		select {
		case <-prevDone:
		default:
			report.Logf(d.w.reporter, report.LevelInfo, "Change detected, restarting build...")
			prevCancel()
			<-prevDone
		}
	}
	if runCtx.Err() != nil {
		return
	}

	if d.w.cfg.ClearScreen {
		fmt.Fprint(d.w.stdout, "\033[2J\033[H")
	}
	if d.w.cfg.OnChange == nil {
		return
	}
	if err := d.w.cfg.OnChange(runCtx, changed); err != nil && runCtx.Err() == nil {
		d.w.reporter.Report(report.Event{
			Kind:    report.KindLog,
			Level:   report.LevelError,
			Message: fmt.Sprintf("watch: callback error: %v", err),
			Err:     err,
		})
	}
}

// close stops new callbacks, cancels the active one and waits for every
// callback to return.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// addDirectories walks BaseDir and adds every non-ignored directory to the
// fsnotify watcher.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			report.Warnf(w.reporter, "watch: skipping inaccessible path %q: %v", path, walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir registers path if it is a directory that is not ignored.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return
	}
	if w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		report.Warnf(w.reporter, "watch: add new directory %q: %v", path, addErr)
	}
}

// isIgnored returns true if rel matches any ignore pattern.
func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns returns true if rel matches a watch pattern. When no
// patterns are configured, all paths match.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	return matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every pattern is a non-empty, valid doublestar
// glob. label names the pattern list in error messages.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: %s pattern %q: %w", label, pat, ErrInvalidPattern)
		}
	}
	return nil
}
