// Package ttf builds TrueType icon fonts: simple quadratic glyphs mapped to
// BMP code points, written with seehuhn.de/go/sfnt.
package ttf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/head"
	"seehuhn.de/go/sfnt/maxp"
	"seehuhn.de/go/sfnt/os2"
)

var (
	// ErrCodepoint is returned for code points outside the BMP or mapped twice
	ErrCodepoint = errors.New("ttf: invalid code point")
	// ErrTooManyGlyphs is returned when the glyph count exceeds the format limit
	ErrTooManyGlyphs = errors.New("ttf: too many glyphs")
)

// DefaultVersion is written to head.fontRevision when Font.Version is unset
const DefaultVersion head.Version = 0x00010000

// DefaultCreated stamps fonts without a creation time, so that equal
// inputs encode to equal bytes.
var DefaultCreated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Glyph is a simple glyph mapped to one code point
type Glyph struct {
	Name      string
	Codepoint rune
	Advance   funit.Int16
	Contours  []glyf.Contour
}

// Font describes the font to encode. Glyph index 0 (.notdef) is added by
// Encode; Glyphs[i] becomes glyph index i+1.
type Font struct {
	Family     string
	Version    head.Version
	UnitsPerEm uint16
	Ascent     funit.Int16
	// Descent is below the baseline and therefore zero or negative
	Descent funit.Int16
	Created time.Time
	Glyphs  []Glyph
}

// Encode serializes f as a TrueType font
func (f *Font) Encode() ([]byte, error) {
	out, err := f.Build()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := out.Write(&buf); err != nil {
		return nil, fmt.Errorf("ttf: write: %w", err)
	}
	return buf.Bytes(), nil
}

// Build converts f into an sfnt.Font with glyf outlines and a format 4
// character map.
func (f *Font) Build() (*sfnt.Font, error) {
	if len(f.Glyphs)+1 > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyGlyphs, len(f.Glyphs))
	}
	if f.UnitsPerEm == 0 {
		return nil, errors.New("ttf: units per em must be positive")
	}

	n := len(f.Glyphs) + 1
	outlines := &glyf.Outlines{
		Glyphs: make(glyf.Glyphs, n),
		Widths: make([]funit.Int16, n),
		Names:  make([]string, n),
		Maxp:   &maxp.TTFInfo{MaxZones: 2},
	}
	outlines.Names[0] = ".notdef"
	outlines.Widths[0] = funit.Int16(f.UnitsPerEm / 2)

	sub := cmap.Format4{}
	seen := make(map[rune]string, len(f.Glyphs))
	for i, g := range f.Glyphs {
		if g.Codepoint <= 0 || g.Codepoint >= 0xFFFF {
			return nil, fmt.Errorf("%w: U+%04X (%s)", ErrCodepoint, g.Codepoint, g.Name)
		}
		if other, dup := seen[g.Codepoint]; dup {
			return nil, fmt.Errorf("%w: U+%04X used by %s and %s", ErrCodepoint, g.Codepoint, other, g.Name)
		}
		seen[g.Codepoint] = g.Name

		gid := i + 1
		outlines.Names[gid] = g.Name
		outlines.Widths[gid] = g.Advance
		sub[uint16(g.Codepoint)] = glyph.ID(gid)

		if len(g.Contours) == 0 {
			continue
		}
		unpacked := glyf.SimpleUnpacked{Contours: g.Contours}
		packed := unpacked.AsGlyph()
		outlines.Glyphs[gid] = &packed
		trackMaxp(outlines.Maxp, g.Contours)
	}

	version := f.Version
	if version == 0 {
		version = DefaultVersion
	}
	created := f.Created
	if created.IsZero() {
		created = DefaultCreated
	}
	scale := 1 / float64(f.UnitsPerEm)

	out := &sfnt.Font{
		FamilyName:       f.Family,
		Width:            os2.WidthNormal,
		Weight:           os2.WeightNormal,
		IsRegular:        true,
		Version:          version,
		CreationTime:     created,
		ModificationTime: created,
		PermUse:          os2.PermInstall,
		UnitsPerEm:       f.UnitsPerEm,
		FontMatrix:       matrix.Matrix{scale, 0, 0, scale, 0, 0},
		Ascent:           f.Ascent,
		Descent:          f.Descent,
		Outlines:         outlines,
	}
	out.InstallCMap(sub)
	return out, nil
}

func trackMaxp(info *maxp.TTFInfo, contours []glyf.Contour) {
	points := 0
	for _, c := range contours {
		points += len(c)
	}
	if p := uint16(min(points, math.MaxUint16)); p > info.MaxPoints {
		info.MaxPoints = p
	}
	if c := uint16(min(len(contours), math.MaxUint16)); c > info.MaxContours {
		info.MaxContours = c
	}
}
