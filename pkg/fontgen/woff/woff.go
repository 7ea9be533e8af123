// Package woff wraps TrueType fonts in the WOFF and WOFF2 web font
// containers.
package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidFont is returned when the input is not a well-formed sfnt
var ErrInvalidFont = errors.New("woff: invalid sfnt data")

type table struct {
	tag      string
	checksum uint32
	data     []byte
}

// readSFNT splits an sfnt file into its tables, sorted by tag
func readSFNT(font []byte) (flavor uint32, tables []table, err error) {
	be := binary.BigEndian
	if len(font) < 12 {
		return 0, nil, fmt.Errorf("%w: short header", ErrInvalidFont)
	}
	flavor = be.Uint32(font)
	n := int(be.Uint16(font[4:]))
	if len(font) < 12+16*n {
		return 0, nil, fmt.Errorf("%w: short table directory", ErrInvalidFont)
	}

	for i := 0; i < n; i++ {
		rec := font[12+16*i:]
		offset := be.Uint32(rec[8:])
		length := be.Uint32(rec[12:])
		if uint64(offset)+uint64(length) > uint64(len(font)) {
			return 0, nil, fmt.Errorf("%w: table %q out of bounds", ErrInvalidFont, rec[:4])
		}
		tables = append(tables, table{
			tag:      string(rec[:4]),
			checksum: be.Uint32(rec[4:]),
			data:     font[offset : offset+length],
		})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })
	return flavor, tables, nil
}

func sfntSize(tables []table) uint32 {
	size := 12 + 16*len(tables)
	for _, t := range tables {
		size += pad4(len(t.data))
	}
	return uint32(size)
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

const woffHeaderSize = 44

// Encode wraps a TrueType font as WOFF 1.0. Each table is zlib
// compressed unless compression does not make it smaller.
func Encode(font []byte) ([]byte, error) {
	flavor, tables, err := readSFNT(font)
	if err != nil {
		return nil, err
	}

	type entry struct {
		table
		offset uint32
		stored []byte
	}
	entries := make([]entry, len(tables))
	offset := woffHeaderSize + 20*len(tables)
	for i, t := range tables {
		stored, err := deflate(t.data)
		if err != nil {
			return nil, fmt.Errorf("woff: compress %s: %w", t.tag, err)
		}
		if len(stored) >= len(t.data) {
			stored = t.data
		}
		entries[i] = entry{table: t, offset: uint32(offset), stored: stored}
		offset += pad4(len(stored))
	}

	be := binary.BigEndian
	out := make([]byte, 0, offset)
	out = append(out, "wOFF"...)
	out = be.AppendUint32(out, flavor)
	out = be.AppendUint32(out, uint32(offset))
	out = be.AppendUint16(out, uint16(len(tables)))
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, sfntSize(tables))
	out = be.AppendUint16(out, 1)
	out = be.AppendUint16(out, 0)
	// no metadata or private blocks
	out = append(out, make([]byte, 20)...)

	for _, e := range entries {
		out = append(out, e.tag...)
		out = be.AppendUint32(out, e.offset)
		out = be.AppendUint32(out, uint32(len(e.stored)))
		out = be.AppendUint32(out, uint32(len(e.data)))
		out = be.AppendUint32(out, e.checksum)
	}
	for _, e := range entries {
		out = append(out, e.stored...)
		out = append(out, make([]byte, pad4(len(e.stored))-len(e.stored))...)
	}
	return out, nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
