package fontgen

import (
	"context"
	"fmt"
	"math"
	"sort"

	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyf"

	"github.com/ideamans/svgiconfont/pkg/fontgen/svg"
	"github.com/ideamans/svgiconfont/pkg/fontgen/ttf"
	"github.com/ideamans/svgiconfont/pkg/fontgen/woff"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

// BuiltinConverter generates TrueType, WOFF and WOFF2 fonts in process.
// Icons get consecutive Private Use Area code points in name order.
//
// Recognized options: fontHeight (units per em, 1000), descent (0),
// normalize (scale every icon to fontHeight, true), startUnicode (U+E001),
// fontDisplay ("block") and tolerance (curve approximation error in font
// units, 0.5).
type BuiltinConverter struct {
	logger logging.Logger
}

// NewBuiltinConverter creates a BuiltinConverter
func NewBuiltinConverter(logger logging.Logger) *BuiltinConverter {
	return &BuiltinConverter{logger: logger.WithModule("builtin")}
}

type parsedIcon struct {
	name string
	doc  *svg.Document
}

// Convert implements Converter. Any icon that fails to parse fails the
// whole pass.
func (c *BuiltinConverter) Convert(ctx context.Context, icons []source.Icon, opts Options) (*Result, error) {
	settings, err := parseSettings(opts.Options)
	if err != nil {
		return nil, err
	}

	sorted := make([]source.Icon, len(icons))
	copy(sorted, icons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if last := int(settings.startUnicode) + len(sorted) - 1; len(sorted) > 0 && last >= 0xFFFF {
		return nil, fmt.Errorf("%d icons from U+%04X overflow the BMP", len(sorted), settings.startUnicode)
	}

	parsed := make([]parsedIcon, 0, len(sorted))
	maxHeight := 0.0
	for _, icon := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := svg.Parse([]byte(icon.Content))
		if err != nil {
			return nil, fmt.Errorf("icon %s: %w", icon.Name, err)
		}
		maxHeight = math.Max(maxHeight, doc.ViewBox.H)
		parsed = append(parsed, parsedIcon{name: icon.Name, doc: doc})
	}

	font := &ttf.Font{
		Family:     opts.Name,
		UnitsPerEm: uint16(settings.fontHeight),
		Ascent:     funit.Int16(settings.fontHeight - settings.descent),
		Descent:    funit.Int16(-settings.descent),
	}
	names := make([]string, len(parsed))
	codepoints := make([]rune, len(parsed))
	for i, icon := range parsed {
		vb := icon.doc.ViewBox
		scale := settings.fontHeight / vb.H
		if !settings.normalize {
			scale = settings.fontHeight / maxHeight
		}
		// flip y, move the viewBox bottom to the descent line
		m := svg.Matrix{scale, 0, 0, -scale, -vb.X * scale, (vb.Y+vb.H)*scale - settings.descent}

		cp := settings.startUnicode + rune(i)
		names[i], codepoints[i] = icon.name, cp
		font.Glyphs = append(font.Glyphs, ttf.Glyph{
			Name:      icon.name,
			Codepoint: cp,
			Advance:   funit.Int16(clampUnits(math.Round(vb.W*scale), 0, math.MaxInt16)),
			Contours:  toContours(icon.doc.Path.Transform(m).Contours(settings.tolerance)),
		})
	}

	data, err := font.Encode()
	if err != nil {
		return nil, err
	}
	if err := ttf.Verify(data, font.Glyphs); err != nil {
		return nil, err
	}
	woff1, err := woff.Encode(data)
	if err != nil {
		return nil, err
	}
	woff2, err := woff.Encode2(data)
	if err != nil {
		return nil, err
	}

	css, err := renderCSS(opts.Name, opts.IconPrefix, settings.fontDisplay, names, codepoints)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Builtin font encoded", "glyphs", len(font.Glyphs), "units_per_em", font.UnitsPerEm)
	return &Result{CSS: css, TTF: data, WOFF: woff1, WOFF2: woff2}, nil
}

func toContours(in []svg.Contour) []glyf.Contour {
	out := make([]glyf.Contour, 0, len(in))
	for _, c := range in {
		pts := make(glyf.Contour, len(c))
		for i, p := range c {
			pts[i] = glyf.Point{
				X:       funit.Int16(clampUnits(math.Round(p.X), -16384, 16383)),
				Y:       funit.Int16(clampUnits(math.Round(p.Y), -16384, 16383)),
				OnCurve: p.OnCurve,
			}
		}
		out = append(out, pts)
	}
	return out
}

func clampUnits(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
