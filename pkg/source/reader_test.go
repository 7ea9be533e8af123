package source

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"home.svg":         `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`,
		"arrow-left.svg":   `<svg/>`,
		"readme.md":        "# icons",
		"logo.png":         "\x89PNG",
		"backup.svg.bak":   "<svg/>",
		"upper.SVG":        "<svg/>",
		"nested/deep.svg":  "<svg/>",
		".hidden.svg":      "<svg id='hidden'/>",
		"noext":            "",
		"double.icon.svg":  "<svg id='double'/>",
		"empty-name/x.txt": "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.svg"), 0755))

	icons, err := ReadDir(dir)
	require.NoError(t, err)

	got := map[string]string{}
	for _, icon := range icons {
		got[icon.Name] = icon.Content
	}

	assert.Equal(t, map[string]string{
		"home":        `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`,
		"arrow-left":  `<svg/>`,
		".hidden":     "<svg id='hidden'/>",
		"double.icon": "<svg id='double'/>",
	}, got)
}

func TestReadDir_Empty(t *testing.T) {
	icons, err := ReadDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, icons)
}

func TestReadDir_Missing(t *testing.T) {
	_, err := ReadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestReadDir_RereadsEachCall(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.svg": "<svg/>"})

	icons, err := ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, icons, 1)

	writeFiles(t, dir, map[string]string{"b.svg": "<svg/>", "a.svg": "<svg id='changed'/>"})

	icons, err = ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, icons, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, Names(icons))
	for _, icon := range icons {
		if icon.Name == "a" {
			assert.Equal(t, "<svg id='changed'/>", icon.Content)
		}
	}
}

func TestReadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"icons/a.svg":   {Data: []byte("<svg id='a'/>")},
		"icons/b.txt":   {Data: []byte("b")},
		"icons/c/d.svg": {Data: []byte("<svg/>")},
	}

	icons, err := ReadFS(fsys, "icons", "memory:icons")
	require.NoError(t, err)
	assert.Equal(t, []Icon{{Name: "a", Content: "<svg id='a'/>"}}, icons)

	_, err = ReadFS(fsys, "missing", "memory:missing")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}
