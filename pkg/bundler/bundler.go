// Package bundler is the production host: it loads the entry modules,
// lets plugins post-process the output bundle and writes it to disk with
// a manifest.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

// ManifestFile is written to the output directory root
const ManifestFile = "manifest.json"

// ErrNoEntries is returned when there is nothing to build
var ErrNoEntries = errors.New("bundler: no entries")

// Options configures a Bundler
type Options struct {
	Build config.BuildConfig
	// Root is the directory file entries are read from
	Root string
}

// Result describes a finished build
type Result struct {
	Assets []host.Asset
	// Manifest maps entry specifiers and emitted asset names to output
	// file names
	Manifest map[string]string
}

// Bundler runs one-shot production builds
type Bundler struct {
	opts    Options
	plugins []host.Plugin
	logger  logging.Logger
}

// New creates a bundler for plugins
func New(opts Options, logger logging.Logger, plugins ...host.Plugin) *Bundler {
	return &Bundler{
		opts:    opts,
		plugins: plugins,
		logger:  logger.WithModule("bundler"),
	}
}

// Build loads every entry, runs the plugins' bundle hooks and writes the
// result to the output directory.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	res, err := b.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.write(ctx, res); err != nil {
		return nil, err
	}

	for _, a := range res.Assets {
		b.logger.Info("Asset written", "file", path.Join(b.opts.Build.OutDir, a.FileName), "size", len(a.Source))
	}
	b.logger.Info("Build complete", "assets", len(res.Assets), "out_dir", b.opts.Build.OutDir, "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// Bundle produces the output assets without writing them
func (b *Bundler) Bundle(ctx context.Context) (*Result, error) {
	if len(b.opts.Build.Entries) == 0 {
		return nil, ErrNoEntries
	}

	bundle := host.NewBundle(host.HashedNamer(b.opts.Build.AssetsDir))
	entries := map[string]string{}

	for _, entry := range b.opts.Build.Entries {
		code, err := b.load(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("load entry %s: %w", entry, err)
		}
		fileName := bundle.EmitText(entryName(entry), code)
		entries[fileName] = entry
		b.logger.Debug("Entry loaded", "entry", entry, "file", fileName)
	}

	for _, p := range b.plugins {
		g, ok := p.(host.BundleGenerator)
		if !ok {
			continue
		}
		if err := g.GenerateBundle(ctx, bundle); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}

	res := &Result{Assets: bundle.Assets(), Manifest: map[string]string{}}
	for _, a := range res.Assets {
		key := a.Name
		if entry, ok := entries[a.FileName]; ok {
			key = entry
		}
		res.Manifest[key] = a.FileName
	}
	return res, nil
}

// load resolves entry through the plugins and loads it, falling back to a
// file under Root
func (b *Bundler) load(ctx context.Context, entry string) (string, error) {
	id := entry
	for _, p := range b.plugins {
		if r, ok := p.(host.Resolver); ok {
			if resolved, ok := r.ResolveID(entry); ok {
				id = resolved
				break
			}
		}
	}

	for _, p := range b.plugins {
		l, ok := p.(host.Loader)
		if !ok {
			continue
		}
		code, owned, err := l.Load(ctx, id)
		if err != nil {
			return "", err
		}
		if owned {
			return code, nil
		}
	}

	data, err := os.ReadFile(filepath.Join(b.opts.Root, filepath.FromSlash(entry)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// entryName is the logical asset name of an entry, e.g.
// "virtual:svg-iconfont.css" becomes "svg-iconfont.css"
func entryName(entry string) string {
	if i := strings.LastIndex(entry, ":"); i >= 0 {
		entry = entry[i+1:]
	}
	return path.Base(filepath.ToSlash(entry))
}
