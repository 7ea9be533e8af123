// Package iconfont is the icon font plugin: it generates the font from a
// directory of SVG icons, exposes its stylesheet as a virtual module,
// serves the fonts during development and links them into production
// bundles.
package iconfont

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/fontgen"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

const (
	// PluginName identifies the plugin to hosts
	PluginName = "svg-iconfont"

	// VirtualModuleID is the specifier applications import
	VirtualModuleID = "virtual:svg-iconfont.css"

	// ResolvedVirtualModuleID is the internal id of the virtual module. The
	// NUL prefix keeps other resolvers and loaders away from it.
	ResolvedVirtualModuleID = "\x00" + VirtualModuleID

	// assetBaseName names emitted font assets before hashing
	assetBaseName = "iconfont"
)

// State is the output of the most recent successful generation. It is
// replaced as a whole and never mutated after publication.
type State struct {
	// CSS is the stylesheet with font file names replaced by placeholders
	CSS   string
	TTF   []byte
	WOFF  []byte
	WOFF2 []byte
	// Icons are the icon names in the font, sorted
	Icons       []string
	GeneratedAt time.Time
}

// Font returns the buffer for format f
func (s *State) Font(f placeholder.Format) []byte {
	switch f {
	case placeholder.FormatTTF:
		return s.TTF
	case placeholder.FormatWOFF:
		return s.WOFF
	case placeholder.FormatWOFF2:
		return s.WOFF2
	}
	return nil
}

// Plugin is one icon font. It owns the generated state; the host calls its
// hooks concurrently.
type Plugin struct {
	opts      config.FontOptions
	converter fontgen.Converter
	debounce  time.Duration
	logger    logging.Logger

	// holds *State
	state atomic.Value
}

// Option configures a Plugin
type Option func(*Plugin)

// WithDebounce coalesces icon directory changes over d
func WithDebounce(d time.Duration) Option {
	return func(p *Plugin) {
		p.debounce = d
	}
}

// New creates a plugin generating opts with conv
func New(opts config.FontOptions, conv fontgen.Converter, logger logging.Logger, options ...Option) *Plugin {
	p := &Plugin{
		opts:      opts,
		converter: conv,
		logger:    logger.WithModule("iconfont"),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Name implements host.Plugin
func (p *Plugin) Name() string {
	return PluginName
}

// Options returns the font options the plugin was created with
func (p *Plugin) Options() config.FontOptions {
	return p.opts
}

// State returns the last published state, or nil before the first
// successful generation
func (p *Plugin) State() *State {
	st, _ := p.state.Load().(*State)
	return st
}

// Regenerate runs a full generation pass and publishes its result. On
// failure the previous state stays in place. Concurrent passes publish in
// the order they complete.
func (p *Plugin) Regenerate(ctx context.Context) (*State, error) {
	var icons []string
	capture := fontgen.ConverterFunc(func(ctx context.Context, in []source.Icon, opts fontgen.Options) (*fontgen.Result, error) {
		icons = source.Names(in)
		return p.converter.Convert(ctx, in, opts)
	})

	start := time.Now()
	res, err := fontgen.Generate(ctx, capture, p.opts, p.logger)
	if err != nil {
		return nil, err
	}
	sort.Strings(icons)

	st := &State{
		CSS:         placeholder.Substitute(res.CSS, p.opts.Name),
		TTF:         res.TTF,
		WOFF:        res.WOFF,
		WOFF2:       res.WOFF2,
		Icons:       icons,
		GeneratedAt: time.Now(),
	}
	p.state.Store(st)

	p.logger.Info("Icon font generated", "icons", len(icons), "duration", time.Since(start).Round(time.Millisecond))
	return st, nil
}

// ResolveID claims the virtual module specifier
func (p *Plugin) ResolveID(id string) (string, bool) {
	if id == VirtualModuleID {
		return ResolvedVirtualModuleID, true
	}
	return "", false
}

// Load regenerates the font and returns the stylesheet for the virtual
// module. Every load is a fresh pass over the icon directory.
func (p *Plugin) Load(ctx context.Context, id string) (string, bool, error) {
	if id != ResolvedVirtualModuleID {
		return "", false, nil
	}
	st, err := p.Regenerate(ctx)
	if err != nil {
		return "", true, fmt.Errorf("load %s: %w", VirtualModuleID, err)
	}
	return st.CSS, true, nil
}

// IconClasses lists the CSS class of every icon in the current state
func (p *Plugin) IconClasses() []string {
	st := p.State()
	if st == nil {
		return nil
	}
	classes := make([]string, len(st.Icons))
	for i, name := range st.Icons {
		classes[i] = p.opts.IconPrefix + "-" + name
	}
	return classes
}
