package ttf

import (
	"fmt"

	xsfnt "golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Verify parses an encoded font back and checks that every glyph is
// reachable through the character map and loads as an outline.
func Verify(data []byte, glyphs []Glyph) error {
	f, err := xsfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("ttf: verify: %w", err)
	}
	if n := f.NumGlyphs(); n != len(glyphs)+1 {
		return fmt.Errorf("ttf: verify: %d glyphs, want %d", n, len(glyphs)+1)
	}

	var buf xsfnt.Buffer
	ppem := fixed.I(int(f.UnitsPerEm()))
	for i, g := range glyphs {
		idx, err := f.GlyphIndex(&buf, g.Codepoint)
		if err != nil {
			return fmt.Errorf("ttf: verify %s: %w", g.Name, err)
		}
		if int(idx) != i+1 {
			return fmt.Errorf("ttf: verify %s: U+%04X maps to glyph %d, want %d", g.Name, g.Codepoint, idx, i+1)
		}
		if _, err := f.LoadGlyph(&buf, idx, ppem, nil); err != nil {
			return fmt.Errorf("ttf: verify %s: %w", g.Name, err)
		}
	}
	return nil
}
