// SPDX-License-Identifier: MPL-2.0

package report

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/mochi/mochi-cli/internal/diag"
	"github.com/mochi/mochi-cli/internal/diagfmt"
)

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

type (
	// LogOptions configures a LogReporter.
	LogOptions struct {
		// Level is one of debug, info, warn, error. Empty means info.
		Level string
		// Root makes diagnostic paths relative to the project root.
		Root string
		// Timestamps adds a time column, useful for long-running serve sessions.
		Timestamps bool
	}

	// LogReporter writes events through a charm logger.
	LogReporter struct {
		logger *log.Logger
		root   string
	}
)

// NewLogReporter creates a reporter writing to w (os.Stderr when nil).
func NewLogReporter(w io.Writer, opts LogOptions) *LogReporter {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "mochi",
		ReportTimestamp: opts.Timestamps,
	})
	level := log.InfoLevel
	if opts.Level != "" {
		if parsed, err := log.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)
	return &LogReporter{logger: logger, root: opts.Root}
}

// Logger exposes the underlying logger for collaborators such as the dev
// server request log.
func (l *LogReporter) Logger() *log.Logger {
	return l.logger
}

// Report logs e at a level derived from its kind and severity.
func (l *LogReporter) Report(e Event) {
	switch e.Kind {
	case KindSkip:
		l.logger.Warn(e.Message)
	case KindDiagnostic:
		l.diagnostic(e.Diagnostic)
	case KindStage:
		l.stage(e)
	case KindConsole:
		l.logger.Debug(e.Message, "script", e.Path)
	default:
		l.log(e)
	}
}

func (l *LogReporter) log(e Event) {
	switch e.Level {
	case LevelDebug:
		l.logger.Debug(e.Message)
	case LevelSuccess:
		l.logger.Info(successStyle.Render(e.Message))
	case LevelWarn:
		l.logger.Warn(e.Message)
	case LevelError:
		l.logger.Error(e.Message)
	default:
		l.logger.Info(e.Message)
	}
}

func (l *LogReporter) diagnostic(d diag.Diagnostic) {
	line := diagfmt.Format(d, l.root)
	switch d.Severity {
	case diag.SevError:
		l.logger.Error(line)
	case diag.SevWarning:
		l.logger.Warn(line)
	case diag.SevSuggestion:
		l.logger.Info(line)
	default:
		l.logger.Print(line)
	}
}

func (l *LogReporter) stage(e Event) {
	switch e.Status {
	case StatusWorking:
		l.logger.Debug("stage started", "stage", e.Stage, "run", e.RunID)
	case StatusError:
		l.logger.Debug("stage failed", "stage", e.Stage, "elapsed", e.Elapsed, "err", e.Err)
	default:
		l.logger.Debug("stage "+string(e.Status), "stage", e.Stage, "elapsed", e.Elapsed)
	}
}
