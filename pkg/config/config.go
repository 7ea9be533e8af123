package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ideamans/svgiconfont/pkg/shared/kvs"
)

// Config represents the application configuration
type Config struct {
	IconFont  FontOptions     `yaml:"iconfont" json:"iconfont"`
	Converter ConverterConfig `yaml:"converter" json:"converter"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Build     BuildConfig     `yaml:"build" json:"build"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// FontOptions describes the icon font a plugin instance generates.
// It is fixed once the plugin is created.
type FontOptions struct {
	Include    string         `yaml:"include" json:"include" env:"ICONFONT_INCLUDE"`          // Directory of .svg icons (default: "src/assets/icon")
	Name       string         `yaml:"name" json:"name" env:"ICONFONT_NAME"`                   // Font family and file base name (default: "iconfont")
	IconPrefix string         `yaml:"icon_prefix" json:"icon_prefix" env:"ICONFONT_ICON_PREFIX"` // CSS class prefix (default: "icon")
	Options    map[string]any `yaml:"options,omitempty" json:"options,omitempty"`             // Converter-specific settings, passed through untouched
}

// ConverterConfig selects the SVG to font converter
type ConverterConfig struct {
	Type string     `yaml:"type" json:"type"` // "builtin" (default) or "exec"
	Exec ExecConfig `yaml:"exec" json:"exec"`
}

// ExecConfig runs an external converter process
type ExecConfig struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Env     []string `yaml:"env,omitempty" json:"env,omitempty"` // Extra KEY=VALUE pairs
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Timeout string   `yaml:"timeout" json:"timeout"` // default: "60s"
}

// GetTimeout returns the exec timeout as a time.Duration
func (e ExecConfig) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(e.Timeout)
}

// CacheConfig enables the generation cache
type CacheConfig struct {
	Enabled bool       `yaml:"enabled" json:"enabled"`
	TTL     string     `yaml:"ttl,omitempty" json:"ttl,omitempty"` // Empty means no expiry
	KVS     kvs.Config `yaml:"kvs" json:"kvs"`
}

// GetTTL returns the cache TTL; zero when unset
func (c CacheConfig) GetTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

// ServerConfig contains development server settings
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`                                 // default: "localhost"
	Port     int    `yaml:"port" json:"port" env:"ICONFONT_SERVER_PORT"`      // default: 5173
	Root     string `yaml:"root,omitempty" json:"root,omitempty"`             // Static directory; empty serves the preview page
	Debounce string `yaml:"debounce,omitempty" json:"debounce,omitempty"`     // Watcher debounce (default: "50ms")
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetDebounce returns the watcher debounce as a time.Duration
func (s ServerConfig) GetDebounce() (time.Duration, error) {
	return time.ParseDuration(s.Debounce)
}

// BuildConfig contains production build settings
type BuildConfig struct {
	OutDir    string   `yaml:"out_dir" json:"out_dir" env:"ICONFONT_OUT_DIR"` // default: "dist"
	AssetsDir string   `yaml:"assets_dir" json:"assets_dir"`                  // default: "assets"
	Entries   []string `yaml:"entries" json:"entries"`                        // default: the virtual stylesheet
	Clean     bool     `yaml:"clean" json:"clean"`                            // Remove stale assets from out_dir first
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string             `yaml:"level" json:"level" env:"ICONFONT_LOG_LEVEL"`
	Color bool               `yaml:"color" json:"color"`
	File  *FileLoggingConfig `yaml:"file,omitempty" json:"file,omitempty"` // Optional file logging configuration
}

// FileLoggingConfig contains file logging and rotation settings
type FileLoggingConfig struct {
	Path       string `yaml:"path" json:"path"`                                   // Log file path (required)
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"` // Maximum size in megabytes before rotation (default: 10)
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"` // Maximum number of old log files to retain (default: 3)
	MaxAge     int    `yaml:"max_age,omitempty" json:"max_age,omitempty"`         // Maximum number of days to retain old log files (default: 14)
	Compress   bool   `yaml:"compress,omitempty" json:"compress,omitempty"`       // Whether to compress rotated log files
}

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	prefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// Validate validates the configuration and reports every problem at once
func (c *Config) Validate() error {
	verr := NewValidationError()

	if c.IconFont.Name == "" {
		verr.Add(ErrNameRequired)
	} else if !namePattern.MatchString(c.IconFont.Name) {
		verr.Add(fmt.Errorf("%w: %q", ErrInvalidName, c.IconFont.Name))
	}

	if !prefixPattern.MatchString(c.IconFont.IconPrefix) {
		verr.Add(fmt.Errorf("%w: %q", ErrInvalidIconPrefix, c.IconFont.IconPrefix))
	}

	if c.IconFont.Include == "" {
		verr.Add(ErrIncludeRequired)
	}

	switch c.Converter.Type {
	case "builtin":
	case "exec":
		if c.Converter.Exec.Command == "" {
			verr.Add(ErrExecCommandRequired)
		}
		if _, err := c.Converter.Exec.GetTimeout(); err != nil {
			verr.Add(fmt.Errorf("%w: converter.exec.timeout: %v", ErrInvalidDuration, err))
		}
	default:
		verr.Add(fmt.Errorf("%w: %q", ErrInvalidConverterType, c.Converter.Type))
	}

	if c.Cache.Enabled {
		if _, err := c.Cache.GetTTL(); err != nil {
			verr.Add(fmt.Errorf("%w: cache.ttl: %v", ErrInvalidDuration, err))
		}
		switch c.Cache.KVS.Type {
		case "", "memory", "leveldb", "redis":
		default:
			verr.Add(fmt.Errorf("%w: %q", ErrInvalidCacheType, c.Cache.KVS.Type))
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		verr.Add(fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port))
	}
	if _, err := c.Server.GetDebounce(); err != nil {
		verr.Add(fmt.Errorf("%w: server.debounce: %v", ErrInvalidDuration, err))
	}

	if c.Build.OutDir == "" {
		verr.Add(ErrOutDirRequired)
	}

	return verr.ErrorOrNil()
}
