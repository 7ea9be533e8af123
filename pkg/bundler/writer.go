package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// writeConcurrency bounds parallel asset writes
const writeConcurrency = 4

func (b *Bundler) write(ctx context.Context, res *Result) error {
	outDir := b.opts.Build.OutDir
	if b.opts.Build.Clean {
		if err := b.clean(outDir); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(writeConcurrency)
	for _, a := range res.Assets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeFile(filepath.Join(outDir, filepath.FromSlash(a.FileName)), a.Source)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write assets: %w", err)
	}

	manifest, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFile(filepath.Join(outDir, ManifestFile), append(manifest, '\n'))
}

// clean removes the files a previous build left in the assets directory
// and the manifest. Other files in the output directory are kept.
func (b *Bundler) clean(outDir string) error {
	patterns := []string{path.Join(b.opts.Build.AssetsDir, "**"), ManifestFile}
	fsys := os.DirFS(outDir)

	removed := 0
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("clean %s: %w", outDir, err)
		}
		for _, m := range matches {
			if err := os.Remove(filepath.Join(outDir, filepath.FromSlash(m))); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("clean %s: %w", outDir, err)
			}
			removed++
		}
	}
	b.logger.Debug("Output cleaned", "out_dir", outDir, "files", removed)
	return nil
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}
