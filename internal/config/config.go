// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mochi/mochi-cli/internal/issue"
	"github.com/mochi/mochi-cli/pkg/cueutil"
)

const (
	// FileName is the project configuration file looked up in the project root.
	FileName = "mochi.cue"
	// EnvPrefix prefixes environment overrides, e.g. MOCHI_SERVE_PORT.
	EnvPrefix = "MOCHI"
)

//go:embed config_schema.cue
var configSchema string

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath forces a specific file. It must exist.
		ConfigFilePath string
		// ProjectRoot is searched for FileName when ConfigFilePath is empty.
		ProjectRoot string
	}

	// Loaded is a resolved configuration and the file it came from, if any.
	Loaded struct {
		Config *Config
		Path   string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}

	// ConfigFileError is returned when a configuration file cannot be used.
	ConfigFileError struct {
		Path string
		Err  error
	}
)

// NewProvider creates a provider reading files and the process environment.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := newViper()

	path := opts.ConfigFilePath
	if path == "" {
		candidate := filepath.Join(opts.ProjectRoot, FileName)
		if fileExists(candidate) {
			path = candidate
		}
	} else if !fileExists(path) {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'mochi config show' without --config to see the defaults").
			Wrap(&ConfigFileError{Path: path, Err: os.ErrNotExist}).
			BuildError()
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the configuration schema").
				Wrap(&ConfigFileError{Path: path, Err: err}).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check MOCHI_* environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &Loaded{Config: &cfg, Path: path}, nil
}

// newViper returns a Viper instance with defaults and MOCHI_* environment
// overrides. Every key has a default so Unmarshal consults the environment
// for all of them.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("output", defaults.Output)
	v.SetDefault("site", defaults.Site)
	v.SetDefault("log_level", string(defaults.LogLevel))
	v.SetDefault("typecheck.enabled", defaults.TypeCheck.Enabled)
	v.SetDefault("typecheck.command", defaults.TypeCheck.Command)
	v.SetDefault("bundle.target", string(defaults.Bundle.Target))
	v.SetDefault("serve.host", defaults.Serve.Host)
	v.SetDefault("serve.port", int(defaults.Serve.Port))
	v.SetDefault("watch.debounce", defaults.Watch.Debounce.String())
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadCUEIntoViper validates path against #Config and merges the fields it
// sets. Unset optional fields are absent from the decoded map, so defaults
// and environment overrides stay in effect for them.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecodeString[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Error implements the error interface.
func (e *ConfigFileError) Error() string {
	return fmt.Sprintf("config file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigFileError) Unwrap() error { return e.Err }

// IssueID maps configuration failures onto the catalog.
func (e *ConfigFileError) IssueID() issue.Id { return issue.ConfigLoadFailedId }
