// Package fontgen turns a directory of SVG icons into font buffers and a
// stylesheet through a pluggable Converter.
package fontgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

// ErrFontGenerationFailed wraps every converter failure
var ErrFontGenerationFailed = errors.New("font generation failed")

// Options is what a converter sees of the font options: everything except
// the source directory.
type Options struct {
	Name       string         `json:"name"`
	IconPrefix string         `json:"iconPrefix"`
	Options    map[string]any `json:"options,omitempty"`
}

// OptionsFrom strips the source directory from fo
func OptionsFrom(fo config.FontOptions) Options {
	return Options{
		Name:       fo.Name,
		IconPrefix: fo.IconPrefix,
		Options:    fo.Options,
	}
}

// Result holds one generation pass. CSS references the fonts as
// "<name>.ttf", "<name>.woff" and "<name>.woff2"; a nil buffer means the
// converter did not produce that format.
type Result struct {
	CSS   string `json:"css"`
	TTF   []byte `json:"ttf,omitempty"`
	WOFF  []byte `json:"woff,omitempty"`
	WOFF2 []byte `json:"woff2,omitempty"`
}

// Font returns the buffer for format f
func (r *Result) Font(f placeholder.Format) []byte {
	switch f {
	case placeholder.FormatTTF:
		return r.TTF
	case placeholder.FormatWOFF:
		return r.WOFF
	case placeholder.FormatWOFF2:
		return r.WOFF2
	}
	return nil
}

// Converter builds fonts and a stylesheet from icons
type Converter interface {
	Convert(ctx context.Context, icons []source.Icon, opts Options) (*Result, error)
}

// ConverterFunc adapts a function to Converter
type ConverterFunc func(ctx context.Context, icons []source.Icon, opts Options) (*Result, error)

// Convert calls f
func (f ConverterFunc) Convert(ctx context.Context, icons []source.Icon, opts Options) (*Result, error) {
	return f(ctx, icons, opts)
}

// Generate reads the icons under fo.Include and converts them. A missing
// directory is an empty icon set. Converter errors are wrapped with
// ErrFontGenerationFailed.
func Generate(ctx context.Context, conv Converter, fo config.FontOptions, logger logging.Logger) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	icons, err := source.ReadDir(fo.Include)
	switch {
	case errors.Is(err, source.ErrDirectoryNotFound):
		logger.Debug("Icon directory not found, generating an empty font", "path", fo.Include)
		icons = nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrFontGenerationFailed, err)
	}

	res, err := conv.Convert(ctx, icons, OptionsFrom(fo))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontGenerationFailed, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: converter returned no result", ErrFontGenerationFailed)
	}

	logger.Debug("Font generated", "icons", len(icons), "ttf", len(res.TTF), "woff", len(res.WOFF), "woff2", len(res.WOFF2))
	return res, nil
}
