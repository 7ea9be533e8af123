package fontgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

const (
	squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M4 4h16v16H4z"/></svg>`
	circleSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><circle cx="12" cy="12" r="10"/></svg>`
)

func writeIcons(t *testing.T, icons map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range icons {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// recordingConverter captures its input and returns a fixed result
type recordingConverter struct {
	calls int
	icons []source.Icon
	opts  Options
	err   error
}

func (r *recordingConverter) Convert(_ context.Context, icons []source.Icon, opts Options) (*Result, error) {
	r.calls++
	r.icons, r.opts = icons, opts
	if r.err != nil {
		return nil, r.err
	}
	return &Result{CSS: "css", TTF: []byte("ttf"), WOFF: []byte("woff"), WOFF2: []byte("woff2")}, nil
}

func TestGenerate(t *testing.T) {
	dir := writeIcons(t, map[string]string{"square.svg": squareSVG, "notes.txt": "x"})
	conv := &recordingConverter{}

	fo := config.FontOptions{
		Include:    dir,
		Name:       "iconfont",
		IconPrefix: "icon",
		Options:    map[string]any{"fontHeight": 512},
	}
	res, err := Generate(context.Background(), conv, fo, logging.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "css", res.CSS)
	require.Len(t, conv.icons, 1)
	assert.Equal(t, "square", conv.icons[0].Name)
	assert.Equal(t, Options{Name: "iconfont", IconPrefix: "icon", Options: map[string]any{"fontHeight": 512}}, conv.opts)
}

func TestGenerate_MissingDirectory(t *testing.T) {
	conv := &recordingConverter{}
	logger := logging.NewRecordingLogger()

	fo := config.FontOptions{Include: filepath.Join(t.TempDir(), "missing"), Name: "iconfont", IconPrefix: "icon"}
	_, err := Generate(context.Background(), conv, fo, logger)
	require.NoError(t, err)

	assert.Equal(t, 1, conv.calls)
	assert.Empty(t, conv.icons)
	assert.Empty(t, logger.Entries(logging.LevelWarn), "missing directory is only logged at debug")
}

func TestGenerate_ConverterError(t *testing.T) {
	boom := errors.New("boom")
	conv := &recordingConverter{err: boom}

	fo := config.FontOptions{Include: t.TempDir(), Name: "iconfont", IconPrefix: "icon"}
	_, err := Generate(context.Background(), conv, fo, logging.NewTestLogger())
	assert.ErrorIs(t, err, ErrFontGenerationFailed)
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_NilResult(t *testing.T) {
	conv := ConverterFunc(func(context.Context, []source.Icon, Options) (*Result, error) {
		return nil, nil
	})
	fo := config.FontOptions{Include: t.TempDir(), Name: "iconfont"}
	_, err := Generate(context.Background(), conv, fo, logging.NewTestLogger())
	assert.ErrorIs(t, err, ErrFontGenerationFailed)
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &recordingConverter{}
	_, err := Generate(ctx, conv, config.FontOptions{Include: t.TempDir()}, logging.NewTestLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, conv.calls)
}

func TestResult_Font(t *testing.T) {
	res := &Result{TTF: []byte("t"), WOFF: []byte("w"), WOFF2: []byte("w2")}
	assert.Equal(t, []byte("t"), res.Font(placeholder.FormatTTF))
	assert.Equal(t, []byte("w"), res.Font(placeholder.FormatWOFF))
	assert.Equal(t, []byte("w2"), res.Font(placeholder.FormatWOFF2))
	assert.Nil(t, res.Font("eot"))
}

func TestNew(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	conv, closeFn, err := New(cfg, logging.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &BuiltinConverter{}, conv)
	assert.NoError(t, closeFn())

	cfg.Cache.Enabled = true
	conv, closeFn, err = New(cfg, logging.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &CachingConverter{}, conv)
	assert.NoError(t, closeFn())

	cfg.Cache.Enabled = false
	cfg.Converter.Type = "exec"
	cfg.Converter.Exec.Command = "true"
	conv, _, err = New(cfg, logging.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &ExecConverter{}, conv)

	cfg.Converter.Type = "unknown"
	_, closeFn, err = New(cfg, logging.NewTestLogger())
	assert.ErrorIs(t, err, config.ErrInvalidConverterType)
	assert.NotNil(t, closeFn)
}
