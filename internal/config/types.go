// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mochi/mochi-cli/internal/bundler"
	"github.com/mochi/mochi-cli/internal/watch"
	"github.com/mochi/mochi-cli/pkg/types"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid bundle target")
	// ErrInvalidDebounce is returned for a negative watch debounce.
	ErrInvalidDebounce = errors.New("invalid watch debounce")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the reporter prints.
	LogLevel string

	// InvalidLogLevelError is returned for an unknown LogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Target is the ECMAScript version scripts are lowered to.
	Target string

	// InvalidTargetError is returned for an unknown Target.
	InvalidTargetError struct {
		Value Target
	}

	// InvalidConfigError aggregates field errors found by Config.IsValid.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the resolved project configuration.
	Config struct {
		Output    string          `json:"output" mapstructure:"output"`
		Site      bool            `json:"site" mapstructure:"site"`
		LogLevel  LogLevel        `json:"log_level" mapstructure:"log_level"`
		TypeCheck TypeCheckConfig `json:"typecheck" mapstructure:"typecheck"`
		Bundle    BundleConfig    `json:"bundle" mapstructure:"bundle"`
		Serve     ServeConfig     `json:"serve" mapstructure:"serve"`
		Watch     WatchConfig     `json:"watch" mapstructure:"watch"`
	}

	// TypeCheckConfig configures the type-check stage.
	TypeCheckConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Command is the shell command template. Empty runs the default tsc invocation.
		Command string `json:"command,omitempty" mapstructure:"command"`
	}

	// BundleConfig configures the bundler.
	BundleConfig struct {
		Target Target `json:"target" mapstructure:"target"`
	}

	// ServeConfig configures the dev server.
	ServeConfig struct {
		Host string           `json:"host" mapstructure:"host"`
		Port types.ListenPort `json:"port" mapstructure:"port"`
	}

	// WatchConfig configures the file watcher used by serve.
	WatchConfig struct {
		Debounce time.Duration `json:"-" mapstructure:"debounce"`
		// Ignore holds doublestar globs added to the built-in ignore list.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}
)

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Output:    "dist",
		Site:      false,
		LogLevel:  LogLevelInfo,
		TypeCheck: TypeCheckConfig{Enabled: true},
		Bundle:    BundleConfig{Target: Target(bundler.DefaultTarget)},
		Serve:     ServeConfig{Host: "0.0.0.0", Port: types.DefaultServePort},
		Watch:     WatchConfig{Debounce: watch.DefaultDebounce, Ignore: []string{}},
	}
}

// IsValid checks what the schema cannot see: values that arrived through
// environment overrides.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output must not be empty"))
	}
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Bundle.Target.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Serve.Port.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidDebounce, c.Watch.Debounce))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (l LogLevel) String() string { return string(l) }

// IsValid returns whether l is one of debug, info, warn, error.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (t Target) String() string { return string(t) }

// IsValid returns whether the bundler knows t.
func (t Target) IsValid() (bool, []error) {
	if t == "" {
		return false, []error{&InvalidTargetError{Value: t}}
	}
	if _, err := bundler.ParseTarget(string(t)); err != nil {
		return false, []error{&InvalidTargetError{Value: t}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid bundle target %q (valid: es2015-es2022, esnext)", e.Value)
}

// Unwrap returns ErrInvalidTarget.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Settings returns c as nested maps keyed like mochi.cue, with durations
// rendered as strings. It is the form printed by "mochi config show".
func (c Config) Settings() map[string]any {
	ignore := c.Watch.Ignore
	if ignore == nil {
		ignore = []string{}
	}
	return map[string]any{
		"output":    c.Output,
		"site":      c.Site,
		"log_level": string(c.LogLevel),
		"typecheck": map[string]any{
			"enabled": c.TypeCheck.Enabled,
			"command": c.TypeCheck.Command,
		},
		"bundle": map[string]any{
			"target": string(c.Bundle.Target),
		},
		"serve": map[string]any{
			"host": c.Serve.Host,
			"port": int(c.Serve.Port),
		},
		"watch": map[string]any{
			"debounce": c.Watch.Debounce.String(),
			"ignore":   ignore,
		},
	}
}
