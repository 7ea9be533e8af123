package iconfont

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
)

// stylesheetPattern selects the text assets whose placeholders are resolved
const stylesheetPattern = "**/*.css"

// GenerateBundle emits the font files and rewrites stylesheet placeholders
// to the emitted file names. A format whose asset cannot be found in the
// bundle resolves to an empty URL.
func (p *Plugin) GenerateBundle(ctx context.Context, bundle *host.Bundle) error {
	st := p.State()
	if st == nil {
		var err error
		if st, err = p.Regenerate(ctx); err != nil {
			return fmt.Errorf("generate bundle: %w", err)
		}
	}

	for _, f := range placeholder.Formats {
		if data := st.Font(f); data != nil {
			bundle.Emit(assetBaseName+"."+string(f), data)
		}
	}

	names := p.correlate(st, bundle.Assets())

	for _, a := range bundle.Assets() {
		if !a.Text || !isStylesheet(a) || !placeholder.Contains(string(a.Source)) {
			continue
		}
		for _, f := range placeholder.Referenced(string(a.Source)) {
			if names[f] == "" {
				p.logger.Warn("No emitted asset for font format, leaving an empty URL", "format", f, "stylesheet", a.FileName)
			}
		}
		// the stylesheet keeps the hashed name computed from its unresolved source
		bundle.Replace(a.FileName, []byte(placeholder.Resolve(string(a.Source), names)))
	}
	return nil
}

// correlate finds the emitted asset for each format by comparing contents.
// Each asset matches at most one format, checked in ttf, woff, woff2 order;
// when several assets match a format the last one wins.
func (p *Plugin) correlate(st *State, assets []host.Asset) placeholder.FileNames {
	names := placeholder.FileNames{}
	for _, a := range assets {
		if a.Text {
			continue
		}
		for _, f := range placeholder.Formats {
			data := st.Font(f)
			if data != nil && bytes.Equal(a.Source, data) {
				names[f] = path.Base(a.FileName)
				break
			}
		}
	}
	return names
}

func isStylesheet(a host.Asset) bool {
	for _, name := range []string{a.Name, a.FileName} {
		if name == "" {
			continue
		}
		if ok, _ := doublestar.Match(stylesheetPattern, name); ok {
			return true
		}
	}
	return false
}
