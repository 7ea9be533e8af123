package woff

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/andybalholm/brotli"
)

const woff2HeaderSize = 48

// knownTags are the WOFF2 table tags that encode as a 6-bit index
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const (
	arbitraryTag = 0x3F
	// transform version 3 is the null transform for glyf and loca
	nullGlyfTransform = 3 << 6
)

// Encode2 wraps a TrueType font as WOFF2 using null transforms for every
// table, so the decoded font is byte-identical per table. All table data
// shares one brotli stream.
func Encode2(font []byte) ([]byte, error) {
	flavor, tables, err := readSFNT(font)
	if err != nil {
		return nil, err
	}
	tables = glyfThenLoca(tables)

	be := binary.BigEndian
	var dir []byte
	var stream bytes.Buffer
	for _, t := range tables {
		idx := tagIndex(t.tag)
		flags := byte(arbitraryTag)
		if idx >= 0 {
			flags = byte(idx)
		}
		if t.tag == "glyf" || t.tag == "loca" {
			flags |= nullGlyfTransform
		}
		dir = append(dir, flags)
		if idx < 0 {
			dir = append(dir, t.tag...)
		}
		dir = appendBase128(dir, uint32(len(t.data)))
		stream.Write(t.data)
	}

	var compressed bytes.Buffer
	w := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := w.Write(stream.Bytes()); err != nil {
		return nil, fmt.Errorf("woff2: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("woff2: compress: %w", err)
	}

	dataOffset := woff2HeaderSize + len(dir)
	total := pad4(dataOffset + compressed.Len())

	out := make([]byte, 0, total)
	out = append(out, "wOF2"...)
	out = be.AppendUint32(out, flavor)
	out = be.AppendUint32(out, uint32(total))
	out = be.AppendUint16(out, uint16(len(tables)))
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, sfntSize(tables))
	out = be.AppendUint32(out, uint32(compressed.Len()))
	out = be.AppendUint16(out, 1)
	out = be.AppendUint16(out, 0)
	// no metadata or private blocks
	out = append(out, make([]byte, 20)...)
	out = append(out, dir...)
	out = append(out, compressed.Bytes()...)
	out = append(out, make([]byte, total-len(out))...)
	return out, nil
}

// glyfThenLoca keeps tag order but moves loca directly after glyf
func glyfThenLoca(tables []table) []table {
	var loca *table
	out := make([]table, 0, len(tables))
	for i := range tables {
		if tables[i].tag == "loca" {
			loca = &tables[i]
			continue
		}
		out = append(out, tables[i])
	}
	if loca == nil {
		return out
	}
	for i, t := range out {
		if t.tag == "glyf" {
			return append(out[:i+1], append([]table{*loca}, out[i+1:]...)...)
		}
	}
	return append(out, *loca)
}

func tagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return -1
}

// appendBase128 writes v as a WOFF2 UIntBase128: big-endian 7-bit groups,
// high bit set on all but the last byte, no leading zero groups
func appendBase128(dst []byte, v uint32) []byte {
	var groups [5]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7F)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := groups[i]
		if i > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
