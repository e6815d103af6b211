// SPDX-License-Identifier: MPL-2.0

// Package report carries progress and notices from the build stages to
// whoever is listening: the terminal logger, the dev server metrics, or a
// recorder in tests. Stages never print directly.
package report

import (
	"fmt"
	"time"

	"github.com/mochi/mochi-cli/internal/diag"
)

// Stage names a pipeline phase.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageResolve   Stage = "resolve"
	StageTypeCheck Stage = "typecheck"
	StageBundle    Stage = "bundle"
	StageExtract   Stage = "extract"
	StageAssemble  Stage = "assemble"
	StageCommit    Stage = "commit"
	StageSite      Stage = "site"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageDiscover, StageResolve, StageTypeCheck, StageBundle,
	StageExtract, StageAssemble, StageCommit, StageSite,
}

// Status is the progress state of a stage.
type Status string

const (
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Kind classifies an Event.
type Kind string

const (
	// KindLog is a free-form message at a Level.
	KindLog Kind = "log"
	// KindSkip reports a candidate that was left out, e.g. a directory
	// without an entry file.
	KindSkip Kind = "skip"
	// KindDiagnostic carries a checker or bundler diagnostic.
	KindDiagnostic Kind = "diagnostic"
	// KindStage reports a stage transition.
	KindStage Kind = "stage"
	// KindConsole is output written by evaluated scripts.
	KindConsole Kind = "console"
)

// Level is the importance of a KindLog event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess
	LevelWarn
	LevelError
)

type (
	// Event is one notification. Only the fields relevant to Kind are set.
	Event struct {
		Kind       Kind
		Level      Level
		Message    string
		Path       string
		Stage      Stage
		Status     Status
		Elapsed    time.Duration
		Err        error
		Diagnostic diag.Diagnostic
		// RunID correlates events of one pipeline run.
		RunID string
	}

	// Reporter consumes events. Implementations must be safe for
	// concurrent use.
	Reporter interface {
		Report(Event)
	}

	// Func adapts a function to Reporter.
	Func func(Event)

	// Nop discards every event.
	Nop struct{}

	multi []Reporter
)

// Report calls f(e).
func (f Func) Report(e Event) { f(e) }

// Report discards e.
func (Nop) Report(Event) {}

// Multi fans events out to every non-nil reporter in order.
func Multi(rs ...Reporter) Reporter {
	out := make(multi, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Logf reports a formatted KindLog event.
func Logf(r Reporter, level Level, format string, args ...any) {
	OrNop(r).Report(Event{Kind: KindLog, Level: level, Message: fmt.Sprintf(format, args...)})
}

// Warnf reports a formatted warning.
func Warnf(r Reporter, format string, args ...any) {
	Logf(r, LevelWarn, format, args...)
}

// Skip reports a skipped candidate at path.
func Skip(r Reporter, path, message string) {
	OrNop(r).Report(Event{Kind: KindSkip, Level: LevelWarn, Path: path, Message: message})
}

// Diagnostics reports each diagnostic in order.
func Diagnostics(r Reporter, ds []diag.Diagnostic) {
	r = OrNop(r)
	for _, d := range ds {
		r.Report(Event{Kind: KindDiagnostic, Diagnostic: d, Path: d.File, Message: d.Message})
	}
}
