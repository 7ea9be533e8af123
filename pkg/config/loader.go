package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sharedconfig "github.com/ideamans/svgiconfont/pkg/shared/config"
	"gopkg.in/yaml.v3"
)

// DefaultEntry is the stylesheet module built when no entries are configured
const DefaultEntry = "virtual:svg-iconfont.css"

// Loader is an interface for loading configuration
type Loader interface {
	Load() (*Config, error)
}

// FileLoader loads configuration from a YAML or JSON file
type FileLoader struct {
	path string
}

// NewFileLoader creates a new FileLoader
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the configuration file.
// Format is detected from the extension (.yaml, .yml, .json).
// ${VAR} and ${VAR:-default} are expanded before parsing, ICONFONT_*
// environment variables are applied after defaults, and the result is
// validated.
func (l *FileLoader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, l.path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = sharedconfig.ExpandEnvBytes(data)

	var cfg Config
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}

	applyDefaults(&cfg)

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file exists, with
// environment overrides applied.
func Default() (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields tagged with `env` from ICONFONT_* variables
func ApplyEnv(cfg *Config) error {
	return sharedconfig.ParseEnv(cfg)
}

// applyDefaults sets default values for optional fields
func applyDefaults(cfg *Config) {
	if cfg.IconFont.Include == "" {
		cfg.IconFont.Include = "src/assets/icon"
	}

	if cfg.IconFont.Name == "" {
		cfg.IconFont.Name = "iconfont"
	}

	if cfg.IconFont.IconPrefix == "" {
		cfg.IconFont.IconPrefix = "icon"
	}

	if cfg.Converter.Type == "" {
		cfg.Converter.Type = "builtin"
	}

	if cfg.Converter.Exec.Timeout == "" {
		cfg.Converter.Exec.Timeout = "60s"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5173
	}

	if cfg.Server.Debounce == "" {
		cfg.Server.Debounce = "50ms"
	}

	if cfg.Build.OutDir == "" {
		cfg.Build.OutDir = "dist"
	}

	if cfg.Build.AssetsDir == "" {
		cfg.Build.AssetsDir = "assets"
	}

	if len(cfg.Build.Entries) == 0 {
		cfg.Build.Entries = []string{DefaultEntry}
	}

	if cfg.Cache.KVS.Type == "" {
		cfg.Cache.KVS.Type = "memory"
	}

	if cfg.Cache.KVS.Namespace == "" {
		cfg.Cache.KVS.Namespace = "fontgen"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
