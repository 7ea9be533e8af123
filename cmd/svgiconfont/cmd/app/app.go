// Package app wires configuration, logging and the icon font plugin for the
// svgiconfont commands.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/fontgen"
	"github.com/ideamans/svgiconfont/pkg/iconfont"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

// Overrides are command-line values; empty fields keep the configured value
type Overrides struct {
	Include    string
	Name       string
	IconPrefix string
	Host       string
	Port       int
	OutDir     string
}

// LoadConfig loads path, falling back to defaults when the file does not
// exist, then applies overrides and validates the result. usedDefault
// reports the fallback so the caller can warn once a logger exists.
func LoadConfig(path string, o Overrides) (cfg *config.Config, usedDefault bool, err error) {
	cfg, err = config.NewFileLoader(path).Load()
	switch {
	case errors.Is(err, config.ErrConfigFileNotFound):
		cfg, err = config.Default()
		if err != nil {
			return nil, false, err
		}
		usedDefault = true
	case err != nil:
		return nil, false, err
	}

	if o.Include != "" {
		cfg.IconFont.Include = o.Include
	}
	if o.Name != "" {
		cfg.IconFont.Name = o.Name
	}
	if o.IconPrefix != "" {
		cfg.IconFont.IconPrefix = o.IconPrefix
	}
	if o.Host != "" {
		cfg.Server.Host = o.Host
	}
	if o.Port != 0 {
		cfg.Server.Port = o.Port
	}
	if o.OutDir != "" {
		cfg.Build.OutDir = o.OutDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, usedDefault, nil
}

// NewLogger creates the process logger from the logging section
func NewLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	var fileRotationConfig *logging.FileRotationConfig
	if cfg.File != nil && cfg.File.Path != "" {
		fileRotationConfig = &logging.FileRotationConfig{
			Path:       cfg.File.Path,
			MaxSizeMB:  cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
	}

	logger, err := logging.NewLoggerWithFile("main", logging.ParseLevel(cfg.Level), cfg.Color, fileRotationConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// NewPlugin creates the icon font plugin with the configured converter.
// The returned function releases the converter's cache.
func NewPlugin(cfg *config.Config, logger logging.Logger) (*iconfont.Plugin, func() error, error) {
	conv, closeConv, err := fontgen.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	debounce, err := cfg.Server.GetDebounce()
	if err != nil {
		_ = closeConv()
		return nil, nil, err
	}
	return iconfont.New(cfg.IconFont, conv, logger, iconfont.WithDebounce(debounce)), closeConv, nil
}

// FormatConfigError turns configuration errors into messages that tell the
// user what to fix
func FormatConfigError(err error) error {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Errors) > 1 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Configuration validation failed with %d error(s):\n\n", len(validationErr.Errors))
		for i, e := range validationErr.Errors {
			fmt.Fprintf(&sb, "  %d. %v\n", i+1, e)
		}
		sb.WriteString("\nPlease fix the errors above in your configuration file.")
		return errors.New(sb.String())
	}

	if errors.Is(err, config.ErrNameRequired) ||
		errors.Is(err, config.ErrInvalidName) ||
		errors.Is(err, config.ErrInvalidIconPrefix) ||
		errors.Is(err, config.ErrIncludeRequired) ||
		errors.Is(err, config.ErrInvalidConverterType) ||
		errors.Is(err, config.ErrExecCommandRequired) ||
		errors.Is(err, config.ErrInvalidCacheType) ||
		errors.Is(err, config.ErrInvalidDuration) ||
		errors.Is(err, config.ErrInvalidPort) ||
		errors.Is(err, config.ErrOutDirRequired) {
		return fmt.Errorf("configuration validation error: %v - please check your configuration file and fix the issue above", err)
	}

	return err
}
