package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestFileLoader_Load(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantErr  bool
		validate func(*testing.T, *Config)
	}{
		{
			name: "valid config",
			file: "svgiconfont.yaml",
			content: `
iconfont:
  include: "icons"
  name: "myicons"
  icon_prefix: "mi"
  options:
    fontHeight: 512
    normalize: false

converter:
  type: "exec"
  exec:
    command: "svgtofont-bridge"
    args: ["--stdin"]
    timeout: "10s"

cache:
  enabled: true
  ttl: "1h"
  kvs:
    type: "leveldb"
    leveldb:
      path: "/tmp/cache"

server:
  host: "0.0.0.0"
  port: 3000
  debounce: "100ms"

build:
  out_dir: "public"
  entries: ["virtual:svg-iconfont.css", "src/main.css"]
  clean: true

logging:
  level: "debug"
  color: true
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "icons", cfg.IconFont.Include)
				assert.Equal(t, "myicons", cfg.IconFont.Name)
				assert.Equal(t, "mi", cfg.IconFont.IconPrefix)
				assert.Equal(t, 512, cfg.IconFont.Options["fontHeight"])
				assert.Equal(t, false, cfg.IconFont.Options["normalize"])

				assert.Equal(t, "exec", cfg.Converter.Type)
				assert.Equal(t, []string{"--stdin"}, cfg.Converter.Exec.Args)
				timeout, err := cfg.Converter.Exec.GetTimeout()
				require.NoError(t, err)
				assert.Equal(t, 10*time.Second, timeout)

				ttl, err := cfg.Cache.GetTTL()
				require.NoError(t, err)
				assert.Equal(t, time.Hour, ttl)
				assert.Equal(t, "leveldb", cfg.Cache.KVS.Type)
				assert.Equal(t, "/tmp/cache", cfg.Cache.KVS.LevelDB.Path)

				assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
				assert.Equal(t, "public", cfg.Build.OutDir)
				assert.Equal(t, "assets", cfg.Build.AssetsDir)
				assert.Len(t, cfg.Build.Entries, 2)
				assert.True(t, cfg.Build.Clean)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "apply defaults",
			file:    "svgiconfont.yml",
			content: "logging:\n  level: warn\n",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "src/assets/icon", cfg.IconFont.Include)
				assert.Equal(t, "iconfont", cfg.IconFont.Name)
				assert.Equal(t, "icon", cfg.IconFont.IconPrefix)
				assert.Equal(t, "builtin", cfg.Converter.Type)
				assert.Equal(t, "localhost:5173", cfg.Server.Addr())
				debounce, err := cfg.Server.GetDebounce()
				require.NoError(t, err)
				assert.Equal(t, 50*time.Millisecond, debounce)
				assert.Equal(t, "dist", cfg.Build.OutDir)
				assert.Equal(t, []string{DefaultEntry}, cfg.Build.Entries)
				assert.False(t, cfg.Cache.Enabled)
				assert.Equal(t, "memory", cfg.Cache.KVS.Type)
			},
		},
		{
			name: "json config",
			file: "svgiconfont.json",
			content: `{
  "iconfont": {"name": "jsonfont", "include": "svg"},
  "server": {"port": 8080}
}`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "jsonfont", cfg.IconFont.Name)
				assert.Equal(t, "svg", cfg.IconFont.Include)
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name:    "invalid yaml",
			file:    "svgiconfont.yaml",
			content: "iconfont: [unclosed",
			wantErr: true,
		},
		{
			name:    "unsupported extension",
			file:    "svgiconfont.toml",
			content: "name = 'x'",
			wantErr: true,
		},
		{
			name:    "invalid values",
			file:    "svgiconfont.yaml",
			content: "iconfont:\n  icon_prefix: \"9bad\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := NewFileLoader(path).Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestFileLoader_NotFound(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestFileLoader_ExpandEnv(t *testing.T) {
	t.Setenv("TEST_ICON_DIR", "/srv/icons")

	path := writeConfig(t, "svgiconfont.yaml", `
iconfont:
  include: "${TEST_ICON_DIR}"
  name: "${TEST_ICON_NAME_UNSET:-fallback}"
`)
	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/icons", cfg.IconFont.Include)
	assert.Equal(t, "fallback", cfg.IconFont.Name)
}

func TestFileLoader_EnvOverrides(t *testing.T) {
	t.Setenv("ICONFONT_NAME", "envfont")
	t.Setenv("ICONFONT_SERVER_PORT", "9000")
	t.Setenv("ICONFONT_OUT_DIR", "build")

	path := writeConfig(t, "svgiconfont.yaml", "iconfont:\n  name: filefont\n")
	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "envfont", cfg.IconFont.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "build", cfg.Build.OutDir)
}

func TestDefault(t *testing.T) {
	t.Setenv("ICONFONT_INCLUDE", "assets/svg")

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "assets/svg", cfg.IconFont.Include)
	assert.Equal(t, "iconfont", cfg.IconFont.Name)
	require.NoError(t, cfg.Validate())
}

func TestDefault_BadEnv(t *testing.T) {
	t.Setenv("ICONFONT_SERVER_PORT", "not-a-port")

	_, err := Default()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := Default()
		require.NoError(t, err)
		return cfg
	}

	t.Run("multiple errors", func(t *testing.T) {
		cfg := base()
		cfg.IconFont.Name = "bad/name"
		cfg.IconFont.IconPrefix = "has space"
		cfg.Converter.Type = "exec"
		cfg.Converter.Exec.Command = ""

		err := cfg.Validate()
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Errors, 3)
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.ErrorIs(t, err, ErrInvalidIconPrefix)
		assert.ErrorIs(t, err, ErrExecCommandRequired)
		assert.Contains(t, err.Error(), "found 3 validation errors")
	})

	t.Run("single error unwraps", func(t *testing.T) {
		cfg := base()
		cfg.IconFont.Name = ""
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrNameRequired)
		assert.Equal(t, ErrNameRequired.Error(), err.Error())
	})

	t.Run("durations and ports", func(t *testing.T) {
		cfg := base()
		cfg.Server.Debounce = "soon"
		cfg.Server.Port = 70000
		cfg.Cache.Enabled = true
		cfg.Cache.KVS.Type = "memcached"

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidDuration)
		assert.ErrorIs(t, err, ErrInvalidPort)
		assert.ErrorIs(t, err, ErrInvalidCacheType)
	})

	t.Run("unknown converter", func(t *testing.T) {
		cfg := base()
		cfg.Converter.Type = "fontforge"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConverterType)
	})
}
