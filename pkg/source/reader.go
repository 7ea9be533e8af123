// Package source reads the SVG icons a font is generated from.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extension marks a directory entry as an icon
const Extension = ".svg"

// ErrDirectoryNotFound is returned when the icon directory does not exist
var ErrDirectoryNotFound = errors.New("icon directory not found")

// Icon is one SVG file: its name is the file name without the extension.
type Icon struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ReadDir returns every icon directly inside dir. Subdirectories and files
// with other extensions are skipped. The directory is read afresh on every
// call.
func ReadDir(dir string) ([]Icon, error) {
	return ReadFS(os.DirFS(dir), ".", dir)
}

// ReadFS is ReadDir over an fs.FS; label is only used in error messages.
func ReadFS(fsys fs.FS, dir, label string) ([]Icon, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, label)
		}
		return nil, fmt.Errorf("failed to list icon directory %s: %w", label, err)
	}

	icons := make([]Icon, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != Extension {
			continue
		}

		data, err := fs.ReadFile(fsys, pathJoin(dir, name))
		if err != nil {
			// The file may have been removed between listing and reading
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read icon %s: %w", name, err)
		}

		icons = append(icons, Icon{
			Name:    strings.TrimSuffix(name, Extension),
			Content: string(data),
		})
	}

	return icons, nil
}

func pathJoin(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}

// Names returns the icon names in input order
func Names(icons []Icon) []string {
	names := make([]string, len(icons))
	for i, icon := range icons {
		names[i] = icon.Name
	}
	return names
}
